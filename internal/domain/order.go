package domain

import "time"

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusReturned   OrderStatus = "RETURNED"
)

// CanTransitionTo encodes the fulfillment state machine. It is deliberately
// independent of the payment state machine on Transaction.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	case OrderStatusDelivered:
		return to == OrderStatusReturned
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderItem carries the unit price snapshotted from the catalog at checkout
// time, so later catalog price changes never touch a placed order.
type OrderItem struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	UnitPrice int64  `bson:"unit_price" json:"unit_price"`
}

type Order struct {
	ID              string      `bson:"_id" json:"id"`
	UserID          string      `bson:"user_id" json:"user_id"`
	Items           []OrderItem `bson:"items" json:"items"`
	ShippingAddress string      `bson:"shipping_address" json:"shipping_address"`
	BillingAddress  string      `bson:"billing_address" json:"billing_address"`
	TotalAmount     int64       `bson:"total_amount" json:"total_amount"`
	Status          OrderStatus `bson:"status" json:"status"`
	// PaymentRef holds the correlation id of the single transaction backing
	// this order. Set at creation, never reassigned.
	PaymentRef string    `bson:"payment_ref" json:"payment_ref"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
