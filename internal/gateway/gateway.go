package gateway

import (
	"context"
	"net/url"

	"github.com/indikaara/storefront/internal/domain"
)

// RedirectInstruction is the opaque handoff payload returned by payment
// initiation: a map of form-field names to values plus the gateway URL the
// form must POST to. Consumers build and submit the form exactly once and
// never inspect the fields.
type RedirectInstruction struct {
	FormData   map[string]string `json:"formData"`
	PaymentURL string            `json:"paymentUrl"`
}

// InitiateInput carries everything the gateway needs to produce a redirect
// instruction for an existing unpaid order.
type InitiateInput struct {
	Order      *domain.Order
	SuccessURL string
	FailureURL string
}

// Verification is the result of a server-to-server payment status lookup.
type Verification struct {
	TxnID   string
	Status  string
	Amount  string
	Mode    string
	Message string
}

// Gateway abstracts the external payment processor. Initiate is pure
// computation over the order snapshot; Verify reaches the gateway's
// server-to-server API and may fail or be rejected by the circuit breaker.
// AuthenticateReturn validates the checksum the processor posts back with a
// browser return, proving the parameters were produced by a holder of the
// merchant salt and not forged by the shopper's browser.
type Gateway interface {
	Initiate(ctx context.Context, in InitiateInput) (*RedirectInstruction, error)
	AuthenticateReturn(params url.Values) error
	Verify(ctx context.Context, txnid string) (*Verification, error)
}
