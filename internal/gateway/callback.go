package gateway

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrMalformedCallback marks a return payload that could not be parsed. It
// never maps to a successful payment; normalization fails closed.
var ErrMalformedCallback = errors.New("malformed payment callback")

type CallbackStatus string

const (
	CallbackSuccess CallbackStatus = "SUCCESS"
	CallbackFailed  CallbackStatus = "FAILED"
)

// Callback is the single canonical shape both providers' return payloads are
// normalized into.
type Callback struct {
	CorrelationID string
	Status        CallbackStatus
	Amount        int64
	ProviderRef   string
	Reason        string
}

type esewaReturnPayload struct {
	Status          string      `json:"status"`
	TotalAmount     esewaAmount `json:"total_amount"`
	TransactionUUID string      `json:"transaction_uuid"`
	TransactionCode string      `json:"transaction_code"`
	ProductCode     string      `json:"product_code"`
}

// esewaAmount tolerates the provider's two wire shapes: a bare number or a
// comma-grouped decimal string ("1,000.0"). The value is informational, the
// ledger total is authoritative, so an unparseable amount decodes as zero.
type esewaAmount int64

func (a *esewaAmount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = esewaAmount(f)
	return nil
}

// NormalizeEsewa decodes the base64 JSON blob the provider appends to the
// success redirect. Any decode failure or missing required field yields a
// FAILED callback and ErrMalformedCallback.
func NormalizeEsewa(encoded string) (Callback, error) {
	failed := Callback{Status: CallbackFailed, Reason: "malformed esewa payload"}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Some redirects arrive URL-safe encoded.
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return failed, fmt.Errorf("%w: base64 decode: %v", ErrMalformedCallback, err)
		}
	}

	var payload esewaReturnPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return failed, fmt.Errorf("%w: json decode: %v", ErrMalformedCallback, err)
	}

	if payload.TransactionUUID == "" {
		return failed, fmt.Errorf("%w: missing transaction_uuid", ErrMalformedCallback)
	}

	cb := Callback{
		CorrelationID: payload.TransactionUUID,
		Status:        CallbackFailed,
		Amount:        int64(payload.TotalAmount),
		ProviderRef:   payload.TransactionCode,
	}
	if payload.Status == "COMPLETE" {
		cb.Status = CallbackSuccess
	} else {
		cb.Reason = fmt.Sprintf("esewa status %q", payload.Status)
	}

	return cb, nil
}

// NormalizeKhalti reads the plain query parameters of the provider's return
// redirect. purchase_order_id carries the correlation id.
func NormalizeKhalti(params url.Values) (Callback, error) {
	correlationID := params.Get("purchase_order_id")
	if correlationID == "" {
		return Callback{Status: CallbackFailed, Reason: "malformed khalti payload"},
			fmt.Errorf("%w: missing purchase_order_id", ErrMalformedCallback)
	}

	cb := Callback{
		CorrelationID: correlationID,
		Status:        CallbackFailed,
		ProviderRef:   params.Get("transaction_id"),
	}

	if raw := params.Get("total_amount"); raw != "" {
		if paisa, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cb.Amount = paisa / 100
		}
	}

	status := params.Get("status")
	if status == "Completed" {
		cb.Status = CallbackSuccess
	} else {
		cb.Reason = fmt.Sprintf("khalti status %q", status)
	}

	return cb, nil
}
