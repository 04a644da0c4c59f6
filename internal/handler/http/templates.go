package http

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	checkoutTmpl = template.Must(template.ParseFS(templateFS, "templates/checkout.html"))
	resultTmpl   = template.Must(template.ParseFS(templateFS, "templates/result.html"))
)
