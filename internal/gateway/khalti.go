package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/sony/gobreaker/v2"
)

type KhaltiConfig struct {
	SecretKey  string
	BaseURL    string
	ReturnURL  string
	WebsiteURL string
	Timeout    time.Duration
}

// KhaltiGateway initiates the payment with a server-to-server call; the
// provider answers with a hosted payment_url the browser is redirected to.
// The initiate call sits behind a circuit breaker so a struggling provider
// fails fast instead of tying up checkout requests.
type KhaltiGateway struct {
	cfg     KhaltiConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*khaltiInitiateResponse]
}

type khaltiInitiateRequest struct {
	ReturnURL         string             `json:"return_url"`
	WebsiteURL        string             `json:"website_url"`
	Amount            int64              `json:"amount"`
	PurchaseOrderID   string             `json:"purchase_order_id"`
	PurchaseOrderName string             `json:"purchase_order_name"`
	CustomerInfo      khaltiCustomerInfo `json:"customer_info"`
}

type khaltiCustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type khaltiInitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
}

func NewKhaltiGateway(cfg KhaltiConfig) *KhaltiGateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "khalti-initiate",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s changed from %v to %v", name, from, to)
		},
	}

	return &KhaltiGateway{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*khaltiInitiateResponse](settings),
	}
}

func (g *KhaltiGateway) Method() domain.PaymentMethod {
	return domain.PaymentMethodKhalti
}

func (g *KhaltiGateway) Dispatch(ctx context.Context, req DispatchRequest) (*RedirectInstruction, error) {
	body := khaltiInitiateRequest{
		ReturnURL:       g.cfg.ReturnURL,
		WebsiteURL:      g.cfg.WebsiteURL,
		Amount:          req.Amount.Total * 100, // provider expects paisa
		PurchaseOrderID: req.CorrelationID,
		// One storefront order per payment; the provider just wants a label.
		PurchaseOrderName: fmt.Sprintf("HaatBazar order %s", req.CorrelationID),
		CustomerInfo: khaltiCustomerInfo{
			Name:  req.Buyer.Name,
			Email: req.Buyer.Email,
			Phone: req.Buyer.Phone,
		},
	}

	resp, err := g.breaker.Execute(func() (*khaltiInitiateResponse, error) {
		return g.initiate(ctx, body)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	return &RedirectInstruction{
		URL:    resp.PaymentURL,
		Method: http.MethodGet,
	}, nil
}

func (g *KhaltiGateway) initiate(ctx context.Context, body khaltiInitiateRequest) (*khaltiInitiateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal initiate request: %w", err)
	}

	url := g.cfg.BaseURL + "/epayment/initiate/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build initiate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+g.cfg.SecretKey)

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("initiate call failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("initiate returned %d: %s", httpResp.StatusCode, snippet)
	}

	var resp khaltiInitiateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode initiate response: %w", err)
	}
	if resp.PaymentURL == "" {
		return nil, fmt.Errorf("initiate response missing payment_url")
	}

	return &resp, nil
}
