package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
)

type EsewaConfig struct {
	ProductCode string
	SecretKey   string
	// FormURL is the provider's hosted payment page the browser POSTs to.
	FormURL    string
	SuccessURL string
	FailureURL string
}

// EsewaGateway builds a signed auto-submit form for the provider's hosted
// page. There is no server-to-server call at dispatch time; the outcome
// arrives later on the success URL as an encoded blob.
type EsewaGateway struct {
	cfg EsewaConfig
}

func NewEsewaGateway(cfg EsewaConfig) *EsewaGateway {
	return &EsewaGateway{cfg: cfg}
}

func (g *EsewaGateway) Method() domain.PaymentMethod {
	return domain.PaymentMethodEsewa
}

const esewaSignedFieldNames = "total_amount,transaction_uuid,product_code"

func (g *EsewaGateway) Dispatch(_ context.Context, req DispatchRequest) (*RedirectInstruction, error) {
	total := strconv.FormatInt(req.Amount.Total, 10)

	fields := map[string]string{
		"amount":                  strconv.FormatInt(req.Amount.Product, 10),
		"tax_amount":              "0",
		"product_service_charge":  "0",
		"product_delivery_charge": strconv.FormatInt(req.Amount.Shipping, 10),
		"total_amount":            total,
		"transaction_uuid":        req.CorrelationID,
		"product_code":            g.cfg.ProductCode,
		"success_url":             g.cfg.SuccessURL,
		"failure_url":             g.cfg.FailureURL,
		"signed_field_names":      esewaSignedFieldNames,
		"signature":               g.sign(total, req.CorrelationID),
	}

	return &RedirectInstruction{
		URL:    g.cfg.FormURL,
		Method: http.MethodPost,
		Fields: fields,
	}, nil
}

// sign produces the base64 HMAC-SHA256 over the provider's canonical string.
// Field order inside the message must match signed_field_names exactly.
func (g *EsewaGateway) sign(totalAmount, transactionUUID string) string {
	message := fmt.Sprintf("total_amount=%s,transaction_uuid=%s,product_code=%s",
		totalAmount, transactionUUID, g.cfg.ProductCode)

	mac := hmac.New(sha256.New, []byte(g.cfg.SecretKey))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
