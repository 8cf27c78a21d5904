package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	orders *service.OrderService
}

func NewOrdersHandler(orders *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

type orderViewDTO struct {
	Order         *domain.Order `json:"order"`
	PaymentStatus string        `json:"payment_status"`
}

// GET /api/v1/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	view, err := h.orders.GetOrder(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	respondJSON(w, http.StatusOK, orderViewDTO{
		Order:         view.Order,
		PaymentStatus: view.PaymentStatus.String(),
	})
}

type updateStatusDTO struct {
	Status string `json:"status"`
}

// PATCH /api/v1/orders/{id}/status — back-office fulfillment updates.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var dto updateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.orders.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(dto.Status))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "not_found", "order not found")
		case errors.Is(err, repository.ErrInvalidOrderStatus):
			respondError(w, http.StatusConflict, "invalid_status", "status transition not allowed")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to update order")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": dto.Status})
}

// POST /api/v1/payments/{ref}/refund — back-office refund flag.
func (h *OrdersHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	err := h.orders.RefundTransaction(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTransactionNotFound):
			respondError(w, http.StatusNotFound, "not_found", "transaction not found")
		case errors.Is(err, repository.ErrInvalidTransition), errors.Is(err, repository.ErrTransitionConflict):
			respondError(w, http.StatusConflict, "invalid_status", "only paid transactions can be refunded")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to refund")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": string(domain.TransactionStatusRefunded)})
}
