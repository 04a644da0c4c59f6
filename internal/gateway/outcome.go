package gateway

import (
	"net/url"
	"strings"
)

// Outcome values for a gateway return.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ReturnOutcome is the transient value derived from the query parameters the
// gateway appends to the return URL. It exists only while the return request
// is being resolved and is never persisted.
type ReturnOutcome struct {
	Outcome   string
	TxnID     string
	OrderID   string
	ErrorCode string
	Reason    string
}

// Success reports whether the outcome is an explicit, unambiguous success.
func (o ReturnOutcome) Success() bool {
	return o.Outcome == OutcomeSuccess
}

// ParseReturnOutcome derives the payment outcome from return-URL query
// parameters. Gateways have shipped the status under different spellings over
// time, so both the generic "status" and the gateway-specific "payu_status"
// are accepted, whichever is present.
//
// Resolution fails closed: only an explicit success status accompanied by a
// transaction ID yields success. A missing, empty, or unrecognized status is
// failure — an order wrongly treated as paid is the worse failure mode.
func ParseReturnOutcome(params url.Values) ReturnOutcome {
	out := ReturnOutcome{
		Outcome:   OutcomeFailure,
		TxnID:     firstParam(params, "txnid", "transaction_id"),
		OrderID:   firstParam(params, "orderId", "order_id"),
		ErrorCode: firstParam(params, "errorCode", "error_code", "error"),
		Reason:    firstParam(params, "reason", "error_Message", "field9"),
	}

	status := strings.ToLower(firstParam(params, "status", "payu_status"))
	if status == OutcomeSuccess && out.TxnID != "" {
		out.Outcome = OutcomeSuccess
	}

	return out
}

// firstParam returns the first non-empty value among the given keys.
func firstParam(params url.Values, keys ...string) string {
	for _, k := range keys {
		if v := params.Get(k); v != "" {
			return v
		}
	}
	return ""
}
