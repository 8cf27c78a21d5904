package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
)

// Confirmer is the slice of the reconciliation engine the cash adapter needs.
type Confirmer interface {
	Confirm(ctx context.Context, correlationID string) error
}

// CashGateway is cash-on-delivery: there is no external payment surface, so
// the payment is confirmed synchronously at dispatch time and the browser is
// sent straight to the local confirmation view.
type CashGateway struct {
	confirmer       Confirmer
	confirmationURL string
}

func NewCashGateway(confirmer Confirmer, confirmationURL string) *CashGateway {
	return &CashGateway{
		confirmer:       confirmer,
		confirmationURL: confirmationURL,
	}
}

func (g *CashGateway) Method() domain.PaymentMethod {
	return domain.PaymentMethodCash
}

func (g *CashGateway) Dispatch(ctx context.Context, req DispatchRequest) (*RedirectInstruction, error) {
	if err := g.confirmer.Confirm(ctx, req.CorrelationID); err != nil {
		return nil, fmt.Errorf("failed to confirm cash payment: %w", err)
	}

	return &RedirectInstruction{
		URL:    fmt.Sprintf("%s?ref=%s", g.confirmationURL, req.CorrelationID),
		Method: http.MethodGet,
	}, nil
}
