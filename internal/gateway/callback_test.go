package gateway

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeEsewaPayload(t *testing.T, payload map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestNormalizeEsewa_Complete(t *testing.T) {
	encoded := encodeEsewaPayload(t, map[string]any{
		"status":           "COMPLETE",
		"total_amount":     600,
		"transaction_uuid": "tx-abc",
		"transaction_code": "000AWEO",
		"product_code":     "EPAYTEST",
	})

	cb, err := NormalizeEsewa(encoded)
	require.NoError(t, err)

	assert.Equal(t, CallbackSuccess, cb.Status)
	assert.Equal(t, "tx-abc", cb.CorrelationID)
	assert.Equal(t, int64(600), cb.Amount)
	assert.Equal(t, "000AWEO", cb.ProviderRef)
}

func TestNormalizeEsewa_CommaGroupedAmount(t *testing.T) {
	// the provider formats large totals as "1,000.0"
	raw, err := json.Marshal(map[string]any{
		"status":           "COMPLETE",
		"transaction_uuid": "tx-big",
	})
	require.NoError(t, err)
	patched := string(raw[:len(raw)-1]) + `,"total_amount":"1,000.0"}`
	encoded := base64.StdEncoding.EncodeToString([]byte(patched))

	cb, err := NormalizeEsewa(encoded)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cb.Amount)
}

func TestNormalizeEsewa_NonCompleteStatusFails(t *testing.T) {
	encoded := encodeEsewaPayload(t, map[string]any{
		"status":           "PENDING",
		"total_amount":     600,
		"transaction_uuid": "tx-abc",
	})

	cb, err := NormalizeEsewa(encoded)
	require.NoError(t, err)
	assert.Equal(t, CallbackFailed, cb.Status)
	assert.Equal(t, "tx-abc", cb.CorrelationID)
	assert.NotEmpty(t, cb.Reason)
}

func TestNormalizeEsewa_FailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"not json", base64.StdEncoding.EncodeToString([]byte("hello"))},
		{"missing transaction_uuid", encodeEsewaPayload(t, map[string]any{
			"status": "COMPLETE", "total_amount": 600,
		})},
		{"empty payload", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := NormalizeEsewa(tt.encoded)
			assert.ErrorIs(t, err, ErrMalformedCallback)
			assert.Equal(t, CallbackFailed, cb.Status, "malformed input must never normalize to success")
		})
	}
}

func TestNormalizeKhalti_Completed(t *testing.T) {
	params := url.Values{}
	params.Set("status", "Completed")
	params.Set("purchase_order_id", "order-42")
	params.Set("transaction_id", "GFq9PFS7b2iYvL8Lir9oXe")
	params.Set("total_amount", "60000")

	cb, err := NormalizeKhalti(params)
	require.NoError(t, err)

	assert.Equal(t, CallbackSuccess, cb.Status)
	assert.Equal(t, "order-42", cb.CorrelationID)
	assert.Equal(t, int64(600), cb.Amount)
	assert.Equal(t, "GFq9PFS7b2iYvL8Lir9oXe", cb.ProviderRef)
}

func TestNormalizeKhalti_UserCancelled(t *testing.T) {
	params := url.Values{}
	params.Set("status", "User canceled")
	params.Set("purchase_order_id", "order-42")

	cb, err := NormalizeKhalti(params)
	require.NoError(t, err)
	assert.Equal(t, CallbackFailed, cb.Status)
	assert.Equal(t, "order-42", cb.CorrelationID)
}

func TestNormalizeKhalti_FailsClosed(t *testing.T) {
	cb, err := NormalizeKhalti(url.Values{})
	assert.ErrorIs(t, err, ErrMalformedCallback)
	assert.Equal(t, CallbackFailed, cb.Status)
	assert.Empty(t, cb.CorrelationID)

	// status present but no correlation id is still unattributable
	params := url.Values{}
	params.Set("status", "Completed")
	cb, err = NormalizeKhalti(params)
	assert.ErrorIs(t, err, ErrMalformedCallback)
	assert.Equal(t, CallbackFailed, cb.Status)
}
