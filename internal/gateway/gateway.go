// Package gateway translates between the checkout core's uniform payment
// contract and each provider's specific request and callback shapes.
package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
)

// ErrGatewayUnavailable means the provider's initiate call failed; the
// transaction stays pending and the user may retry checkout.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// RedirectInstruction tells the HTTP layer how to hand the browser over to
// the payment surface. Method GET is a plain redirect to URL; method POST
// means the browser must auto-submit a form with Fields to URL.
type RedirectInstruction struct {
	URL    string
	Method string
	Fields map[string]string
}

func (r *RedirectInstruction) IsForm() bool {
	return r.Method == http.MethodPost
}

type BuyerInfo struct {
	Name  string
	Email string
	Phone string
}

type DispatchRequest struct {
	CorrelationID   string
	Amount          domain.Amount
	Buyer           BuyerInfo
	ShippingAddress string
}

// Gateway is the common adapter contract for all payment methods.
type Gateway interface {
	Method() domain.PaymentMethod
	Dispatch(ctx context.Context, req DispatchRequest) (*RedirectInstruction, error)
}
