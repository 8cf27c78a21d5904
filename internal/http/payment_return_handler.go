package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/gateway"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/service"
)

// PaymentReturnHandler is the redirect target the providers send the
// browser back to. The same URL may be loaded any number of times (refresh,
// back button, provider retry); reconciliation downstream is idempotent, so
// the handler just forwards every hit.
type PaymentReturnHandler struct {
	checkout        service.CheckoutService
	confirmationURL string
	failureURL      string
}

func NewPaymentReturnHandler(checkout service.CheckoutService, confirmationURL, failureURL string) *PaymentReturnHandler {
	return &PaymentReturnHandler{
		checkout:        checkout,
		confirmationURL: confirmationURL,
		failureURL:      failureURL,
	}
}

// GET /api/v1/payments/esewa/return
func (h *PaymentReturnHandler) EsewaReturn(w http.ResponseWriter, r *http.Request) {
	h.handleReturn(w, r, domain.PaymentMethodEsewa)
}

// GET /api/v1/payments/khalti/return
func (h *PaymentReturnHandler) KhaltiReturn(w http.ResponseWriter, r *http.Request) {
	h.handleReturn(w, r, domain.PaymentMethodKhalti)
}

func (h *PaymentReturnHandler) handleReturn(w http.ResponseWriter, r *http.Request, method domain.PaymentMethod) {
	outcome, err := h.checkout.HandlePaymentReturn(r.Context(), method, r.URL.Query())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTransactionNotFound):
			// Unknown correlation id: nothing was mutated, nothing to retry.
			respondError(w, http.StatusNotFound, "unknown_payment", "no matching payment attempt")
		case errors.Is(err, gateway.ErrMalformedCallback):
			respondError(w, http.StatusBadRequest, "malformed_callback", "payment return payload unreadable")
		case errors.Is(err, repository.ErrInvalidTransition):
			log.Printf("reconciliation aborted for %s return: %v", method, err)
			respondError(w, http.StatusConflict, "reconciliation_conflict", "payment state conflict")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "payment reconciliation failed")
		}
		return
	}

	target := h.failureURL
	if outcome.Succeeded {
		target = h.confirmationURL
	}
	if outcome.OrderID != "" {
		target = fmt.Sprintf("%s?order=%s", target, outcome.OrderID)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
