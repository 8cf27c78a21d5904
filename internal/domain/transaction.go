package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodEsewa  PaymentMethod = "esewa"
	PaymentMethodKhalti PaymentMethod = "khalti"
	PaymentMethodCash   PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodEsewa, PaymentMethodKhalti, PaymentMethodCash:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusPaid     TransactionStatus = "PAID"
	TransactionStatusFailed   TransactionStatus = "FAILED"
	TransactionStatusRefunded TransactionStatus = "REFUNDED"
)

// CanTransitionTo encodes the ledger state machine: a pending payment either
// completes or fails, and only a completed payment can be refunded.
func (s TransactionStatus) CanTransitionTo(to TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return to == TransactionStatusPaid || to == TransactionStatusFailed
	case TransactionStatusPaid:
		return to == TransactionStatusRefunded
	}
	return false
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusFailed || s == TransactionStatusRefunded
}

func (s TransactionStatus) String() string {
	return string(s)
}

// Amount is the breakdown snapshotted when the transaction is created.
// Values are whole rupees; conversion to provider minor units happens at the
// gateway edge only.
type Amount struct {
	Product  int64 `bson:"product" json:"product"`
	Shipping int64 `bson:"shipping" json:"shipping"`
	Total    int64 `bson:"total" json:"total"`
}

type Transaction struct {
	ID            string            `bson:"_id,omitempty"`
	CorrelationID string            `bson:"correlation_id"`
	UserID        string            `bson:"user_id"`
	Method        PaymentMethod     `bson:"method"`
	Amount        Amount            `bson:"amount"`
	Status        TransactionStatus `bson:"status"`
	ProviderRef   string            `bson:"provider_ref,omitempty"`
	CreatedAt     time.Time         `bson:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at"`
}
