package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/gateway"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutServiceMock struct {
	resp       *service.CheckoutResponse
	outcome    *service.PaymentOutcome
	err        error
	lastReq    *service.CheckoutRequest
	lastParams url.Values
}

func (m *checkoutServiceMock) InitiateCheckout(ctx context.Context, req *service.CheckoutRequest) (*service.CheckoutResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m *checkoutServiceMock) HandlePaymentReturn(ctx context.Context, method domain.PaymentMethod, params url.Values) (*service.PaymentOutcome, error) {
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

func checkoutRequest(t *testing.T, body string, accept string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(body))
	req.Header.Set("X-User-ID", "user-1")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return req
}

func serveAuthed(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	SessionAuthMiddleware(h).ServeHTTP(rec, req)
	return rec
}

func TestInitiateCheckout_JSONClient(t *testing.T) {
	mock := &checkoutServiceMock{
		resp: &service.CheckoutResponse{
			OrderID:       "order-1",
			CorrelationID: "tx-1",
			Amount:        domain.Amount{Product: 450, Shipping: 50, Total: 500},
			Redirect: &gateway.RedirectInstruction{
				URL:    "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
				Method: "POST",
				Fields: map[string]string{"total_amount": "500"},
			},
		},
	}
	handler := NewCheckoutHandler(mock)

	req := checkoutRequest(t, `{"method":"esewa","shipping_address":"Kathmandu"}`, "")
	rec := serveAuthed(handler.InitiateCheckout, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "order-1", got["order_id"])
	assert.Equal(t, "tx-1", got["correlation_id"])

	require.NotNil(t, mock.lastReq)
	assert.Equal(t, "user-1", mock.lastReq.UserID)
	assert.Equal(t, domain.PaymentMethodEsewa, mock.lastReq.Method)
}

func TestInitiateCheckout_BrowserGetsAutoSubmitForm(t *testing.T) {
	mock := &checkoutServiceMock{
		resp: &service.CheckoutResponse{
			OrderID:       "order-1",
			CorrelationID: "tx-1",
			Redirect: &gateway.RedirectInstruction{
				URL:    "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
				Method: "POST",
				Fields: map[string]string{"transaction_uuid": "tx-1"},
			},
		},
	}
	handler := NewCheckoutHandler(mock)

	req := checkoutRequest(t, `{"method":"esewa"}`, "text/html")
	rec := serveAuthed(handler.InitiateCheckout, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `action="https://rc-epay.esewa.com.np/api/epay/main/v2/form"`)
	assert.Contains(t, body, `name="transaction_uuid" value="tx-1"`)
}

func TestInitiateCheckout_BrowserGetsRedirectForURLTarget(t *testing.T) {
	mock := &checkoutServiceMock{
		resp: &service.CheckoutResponse{
			OrderID: "order-1",
			Redirect: &gateway.RedirectInstruction{
				URL:    "https://pay.khalti.com/?pidx=abc",
				Method: "GET",
			},
		},
	}
	handler := NewCheckoutHandler(mock)

	req := checkoutRequest(t, `{"method":"khalti"}`, "text/html")
	rec := serveAuthed(handler.InitiateCheckout, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://pay.khalti.com/?pidx=abc", rec.Header().Get("Location"))
}

func TestInitiateCheckout_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"empty cart", service.ErrEmptyCart, http.StatusUnprocessableEntity},
		{"unsupported method", service.ErrUnsupportedMethod, http.StatusBadRequest},
		{"validation", service.ErrValidation, http.StatusBadRequest},
		{"checkout in progress", service.ErrCheckoutInProgress, http.StatusConflict},
		{"gateway down", gateway.ErrGatewayUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCheckoutHandler(&checkoutServiceMock{err: tt.err})
			req := checkoutRequest(t, `{"method":"esewa"}`, "")
			rec := serveAuthed(handler.InitiateCheckout, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestInitiateCheckout_RejectsMissingSession(t *testing.T) {
	handler := NewCheckoutHandler(&checkoutServiceMock{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	rec := serveAuthed(handler.InitiateCheckout, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPaymentReturn_SuccessRedirectsToConfirmation(t *testing.T) {
	mock := &checkoutServiceMock{
		outcome: &service.PaymentOutcome{Succeeded: true, OrderID: "order-1", CorrelationID: "tx-1"},
	}
	handler := NewPaymentReturnHandler(mock, "/checkout/confirmed", "/checkout/failed")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/khalti/return?purchase_order_id=tx-1&status=Completed", nil)
	rec := httptest.NewRecorder()
	handler.KhaltiReturn(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/checkout/confirmed?order=order-1", rec.Header().Get("Location"))
	assert.Equal(t, "tx-1", mock.lastParams.Get("purchase_order_id"))
}

func TestPaymentReturn_FailureRedirectsToFailurePage(t *testing.T) {
	mock := &checkoutServiceMock{
		outcome: &service.PaymentOutcome{Succeeded: false, OrderID: "order-1"},
	}
	handler := NewPaymentReturnHandler(mock, "/checkout/confirmed", "/checkout/failed")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/esewa/return?data=garbage", nil)
	rec := httptest.NewRecorder()
	handler.EsewaReturn(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/checkout/failed?order=order-1", rec.Header().Get("Location"))
}

func TestPaymentReturn_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown correlation id", repository.ErrTransactionNotFound, http.StatusNotFound},
		{"malformed payload", gateway.ErrMalformedCallback, http.StatusBadRequest},
		{"state conflict", repository.ErrInvalidTransition, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewPaymentReturnHandler(&checkoutServiceMock{err: tt.err}, "/ok", "/fail")
			req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/esewa/return", nil)
			rec := httptest.NewRecorder()
			handler.EsewaReturn(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
