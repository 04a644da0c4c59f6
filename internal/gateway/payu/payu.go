// Package payu implements the payment gateway handoff for PayU India's
// hosted-checkout (web checkout) integration.
package payu

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	apperrors "github.com/indikaara/storefront/pkg/errors"
	"github.com/indikaara/storefront/pkg/httpclient"

	"github.com/indikaara/storefront/internal/gateway"
)

// Config holds PayU merchant credentials and endpoints.
type Config struct {
	MerchantKey string
	Salt        string
	// PaymentURL is the hosted-checkout endpoint the redirect form posts to,
	// e.g. https://secure.payu.in/_payment (or the sandbox equivalent).
	PaymentURL string
	// VerifyURL is the merchant web-service endpoint for verify_payment,
	// e.g. https://info.payu.in/merchant/postservice.php?form=2.
	VerifyURL string
	// ProductInfo is the static product description PayU requires in the
	// request hash.
	ProductInfo string
}

// Gateway implements gateway.Gateway against PayU.
type Gateway struct {
	cfg    Config
	client *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// New creates a PayU gateway. The circuit-breaker client guards the
// server-to-server verify_payment calls; Initiate never goes on the wire.
func New(cfg Config, client *httpclient.CircuitBreakerClient, logger *slog.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// Initiate builds the opaque redirect instruction for an unpaid order: the
// hidden form fields (including the SHA-512 request hash) and the payment URL
// the form must POST to. It performs no network I/O.
func (g *Gateway) Initiate(_ context.Context, in gateway.InitiateInput) (*gateway.RedirectInstruction, error) {
	o := in.Order
	if o == nil {
		return nil, apperrors.InvalidInput("order is required")
	}
	if o.TxnID == "" {
		return nil, apperrors.InvalidInput("order has no transaction id")
	}
	if o.Paid {
		return nil, apperrors.Conflict("order is already paid")
	}

	amount := formatAmount(o.TotalPrice)
	firstName := firstNameOf(o.ShippingAddress.FullName)
	email := o.ShippingAddress.Email

	form := map[string]string{
		"key":              g.cfg.MerchantKey,
		"txnid":            o.TxnID,
		"amount":           amount,
		"productinfo":      g.cfg.ProductInfo,
		"firstname":        firstName,
		"email":            email,
		"phone":            o.ShippingAddress.Phone,
		"surl":             in.SuccessURL,
		"furl":             in.FailureURL,
		"hash":             g.requestHash(o.TxnID, amount, firstName, email),
		"service_provider": "payu_paisa",
	}

	return &gateway.RedirectInstruction{
		FormData:   form,
		PaymentURL: g.cfg.PaymentURL,
	}, nil
}

// AuthenticateReturn validates the checksum PayU posts back with the return
// form. The response hash reverses the request field order with the
// transaction status inserted after the salt; only a holder of the salt can
// produce it, so a return without a matching hash is treated as forged.
func (g *Gateway) AuthenticateReturn(params url.Values) error {
	posted := params.Get("hash")
	if posted == "" {
		return apperrors.Unauthorized("gateway return carries no checksum")
	}
	expected := g.responseHash(params)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(posted)), []byte(expected)) != 1 {
		return apperrors.Unauthorized("gateway return checksum mismatch")
	}
	return nil
}

// verifyResponse is the shape of PayU's verify_payment reply for a single
// transaction.
type verifyResponse struct {
	Status             int    `json:"status"`
	Msg                string `json:"msg"`
	TransactionDetails map[string]struct {
		TxnID  string `json:"txnid"`
		Status string `json:"status"`
		Amount string `json:"amt"`
		Mode   string `json:"mode"`
	} `json:"transaction_details"`
}

// Verify performs the verify_payment server-to-server lookup for a single
// transaction ID.
func (g *Gateway) Verify(ctx context.Context, txnid string) (*gateway.Verification, error) {
	if txnid == "" {
		return nil, apperrors.InvalidInput("transaction id is required")
	}

	const command = "verify_payment"

	form := url.Values{}
	form.Set("key", g.cfg.MerchantKey)
	form.Set("command", command)
	form.Set("var1", txnid)
	form.Set("hash", g.commandHash(command, txnid))

	resp, err := g.client.Post(ctx, g.cfg.VerifyURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payu verify_payment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return nil, httpclient.ParseResponseError(resp, "payu")
	}

	var parsed verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode payu verify_payment response: %w", err)
	}

	details, ok := parsed.TransactionDetails[txnid]
	if !ok {
		return nil, apperrors.NotFound("transaction", txnid)
	}

	g.logger.DebugContext(ctx, "payu transaction verified",
		slog.String("txnid", txnid),
		slog.String("status", details.Status),
	)

	return &gateway.Verification{
		TxnID:   details.TxnID,
		Status:  details.Status,
		Amount:  details.Amount,
		Mode:    details.Mode,
		Message: parsed.Msg,
	}, nil
}

// requestHash computes the PayU request checksum:
// sha512(key|txnid|amount|productinfo|firstname|email|udf1..udf5|||||salt).
// The udf slots are unused and left empty.
func (g *Gateway) requestHash(txnid, amount, firstname, email string) string {
	fields := []string{
		g.cfg.MerchantKey,
		txnid,
		amount,
		g.cfg.ProductInfo,
		firstname,
		email,
		"", "", "", "", "", // udf1..udf5
		"", "", "", "", "",
		g.cfg.Salt,
	}
	return sha512Hex(strings.Join(fields, "|"))
}

// responseHash computes the checksum PayU sends back with a return:
// sha512(salt|status|udf10..udf1|email|firstname|productinfo|amount|txnid|key),
// the request field order reversed. All fields except the salt come from the
// posted form, since that is what PayU hashed.
func (g *Gateway) responseHash(params url.Values) string {
	fields := []string{
		g.cfg.Salt,
		params.Get("status"),
		"", "", "", "", "", // udf10..udf6, unused
		"", "", "", "", "", // udf5..udf1
		params.Get("email"),
		params.Get("firstname"),
		params.Get("productinfo"),
		params.Get("amount"),
		params.Get("txnid"),
		params.Get("key"),
	}
	return sha512Hex(strings.Join(fields, "|"))
}

// commandHash computes the checksum for merchant web-service commands:
// sha512(key|command|var1|salt).
func (g *Gateway) commandHash(command, var1 string) string {
	return sha512Hex(strings.Join([]string{g.cfg.MerchantKey, command, var1, g.cfg.Salt}, "|"))
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// formatAmount renders a paise amount as rupees with two decimals, the format
// PayU expects in both the form and the hash.
func formatAmount(paise int64) string {
	return fmt.Sprintf("%d.%02d", paise/100, paise%100)
}

// firstNameOf extracts the first whitespace-separated token of a full name.
func firstNameOf(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
