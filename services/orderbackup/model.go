package orderbackup

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	backupVersion = "1.0"
	dateFormat    = "2006-01-02"
)

type OrderItem struct {
	Name     string `json:"name"`
	Size     string `json:"size,omitempty"`
	Quantity int    `json:"quantity"`
}

// OrderRecord is this system's local representation of one purchase,
// independent of Stripe's own record. JSON field names follow the on-disk
// backup format so the operator can read the files directly.
type OrderRecord struct {
	SessionID             string      `json:"sessionId"`
	StripePaymentIntentID string      `json:"stripePaymentIntentId,omitempty"`
	StripeCustomerID      string      `json:"stripeCustomerId,omitempty"`
	CustomerEmail         string      `json:"customerEmail"`
	CustomerName          string      `json:"customerName,omitempty"`
	CustomerPhone         string      `json:"customerPhone,omitempty"`
	Items                 []OrderItem `json:"items"`
	TotalQuantity         int         `json:"totalQuantity"`
	Subtotal              float64     `json:"subtotal"`
	ShippingCost          float64     `json:"shippingCost"`
	TotalAmount           float64     `json:"totalAmount"`
	TotalSavings          float64     `json:"totalSavings"`
	Currency              string      `json:"currency"`
	OriginalPrice         string      `json:"originalPrice,omitempty"`
	EffectivePrice        string      `json:"effectivePrice,omitempty"`
	ShippingMethod        string      `json:"shippingMethod,omitempty"`
	ShippingAddress       string      `json:"shippingAddress,omitempty"`
	OrderStatus           string      `json:"orderStatus,omitempty"`
	FulfillmentStatus     string      `json:"fulfillmentStatus,omitempty"`
	Timestamp             time.Time   `json:"timestamp"`
	Source                string      `json:"source,omitempty"`
	Notes                 string      `json:"notes"`
	InternalOrderID       string      `json:"internalOrderId,omitempty"`
	BackupTimestamp       time.Time   `json:"backupTimestamp,omitempty"`
	BackupVersion         string      `json:"backupVersion,omitempty"`
}

// Patch is a shallow field overwrite, keyed by the record's JSON field names.
type Patch map[string]any

const (
	FulfillmentPending     = "pending"
	FulfillmentReadyToShip = "ready_to_ship"
)

const orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewInternalOrderID builds the human-readable order id handed to the
// operator, distinct from Stripe's session id.
func NewInternalOrderID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = orderIDAlphabet[rand.Intn(len(orderIDAlphabet))]
	}

	return fmt.Sprintf("BRISCO-%d-%s", now.UnixMilli(), string(suffix))
}
