package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/gateway"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/service"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
}

func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type initiateCheckoutDTO struct {
	Method          string `json:"method"`
	ShippingAddress string `json:"shipping_address"`
	BillingAddress  string `json:"billing_address"`
	BuyerName       string `json:"buyer_name"`
	BuyerEmail      string `json:"buyer_email"`
	BuyerPhone      string `json:"buyer_phone"`
}

// POST /api/v1/checkout
//
// Browser clients are handed the gateway redirect directly: a 303 for URL
// targets, an auto-submitting form for POST targets. API clients get the
// instruction as JSON.
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var dto initiateCheckoutDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	resp, err := h.checkout.InitiateCheckout(r.Context(), &service.CheckoutRequest{
		UserID:          userID,
		Method:          domain.PaymentMethod(dto.Method),
		ShippingAddress: dto.ShippingAddress,
		BillingAddress:  dto.BillingAddress,
		Buyer: gateway.BuyerInfo{
			Name:  dto.BuyerName,
			Email: dto.BuyerEmail,
			Phone: dto.BuyerPhone,
		},
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	if wantsHTML(r) {
		if resp.Redirect.IsForm() {
			renderAutoSubmitForm(w, resp.Redirect)
			return
		}
		http.Redirect(w, r, resp.Redirect.URL, http.StatusSeeOther)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"order_id":       resp.OrderID,
		"correlation_id": resp.CorrelationID,
		"amount":         resp.Amount,
		"redirect": map[string]interface{}{
			"url":    resp.Redirect.URL,
			"method": resp.Redirect.Method,
			"fields": resp.Redirect.Fields,
		},
	})
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "cart is empty")
	case errors.Is(err, service.ErrUnsupportedMethod):
		respondError(w, http.StatusBadRequest, "unsupported_method", "unknown payment method")
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, repository.ErrPaymentRefNotFound),
		errors.Is(err, repository.ErrOrderTotalMismatch):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, service.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress",
			"a checkout for this cart is already in progress, complete or wait for it")
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		respondError(w, http.StatusBadGateway, "gateway_unavailable",
			"payment provider is unavailable, please retry")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

var autoSubmitForm = template.Must(template.New("gateway-form").Parse(`<!DOCTYPE html>
<html>
<head><title>Redirecting to payment…</title></head>
<body onload="document.forms[0].submit()">
<form action="{{.URL}}" method="POST">
{{- range $name, $value := .Fields}}
<input type="hidden" name="{{$name}}" value="{{$value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

func renderAutoSubmitForm(w http.ResponseWriter, ri *gateway.RedirectInstruction) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := autoSubmitForm.Execute(w, ri); err != nil {
		log.Printf("failed to render gateway form: %v", err)
	}
}
