package orderview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/udonthavemotion/BRISClothing/services/orderbackup"
)

type ordersQuery struct {
	Action string `form:"action"`
	Date   string `form:"date"`
	Search string `form:"search"`
}

// OrderSummary is the operator-facing rendering of a backup record: one
// glance tells what to pack and where to send it.
type OrderSummary struct {
	OrderNumber     string          `json:"orderNumber"`
	InternalOrderID string          `json:"internalOrderId,omitempty"`
	Date            string          `json:"date"`
	Customer        CustomerSummary `json:"customer"`
	Items           string          `json:"items"`
	Pricing         PricingSummary  `json:"pricing"`
	Shipping        ShippingSummary `json:"shipping"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes"`
}

type CustomerSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PricingSummary struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
	Savings  string `json:"savings"`
}

type ShippingSummary struct {
	Method  string `json:"method"`
	Address string `json:"address"`
}

type ordersResponse struct {
	Success    bool           `json:"success"`
	Orders     []OrderSummary `json:"orders"`
	Total      int            `json:"total"`
	Date       string         `json:"date,omitempty"`
	SearchTerm string         `json:"searchTerm,omitempty"`
	Period     string         `json:"period,omitempty"`
}

type statsResponse struct {
	Success bool                   `json:"success"`
	Stats   orderbackup.OrderStats `json:"stats"`
}

func summarize(record orderbackup.OrderRecord) OrderSummary {
	return OrderSummary{
		OrderNumber:     record.SessionID,
		InternalOrderID: record.InternalOrderID,
		Date:            record.Timestamp.Format("1/2/2006"),
		Customer: CustomerSummary{
			Name:  orDefault(record.CustomerName, "N/A"),
			Email: record.CustomerEmail,
			Phone: orDefault(record.CustomerPhone, "N/A"),
		},
		Items: itemsLine(record.Items),
		Pricing: PricingSummary{
			Subtotal: dollars(record.Subtotal),
			Shipping: dollars(record.ShippingCost),
			Total:    dollars(record.TotalAmount),
			Savings:  dollars(record.TotalSavings),
		},
		Shipping: ShippingSummary{
			Method:  orDefault(record.ShippingMethod, "Standard"),
			Address: orDefault(record.ShippingAddress, "Address will be in Stripe"),
		},
		Status: orDefault(record.FulfillmentStatus, orderbackup.FulfillmentPending),
		Notes:  record.Notes,
	}
}

func summarizeAll(records []orderbackup.OrderRecord) []OrderSummary {
	summaries := make([]OrderSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, summarize(record))
	}

	return summaries
}

func itemsLine(items []orderbackup.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		size := item.Size
		if size == "" {
			size = "N/A"
		}
		parts = append(parts, fmt.Sprintf("%s (Size: %s) x%d", item.Name, size, item.Quantity))
	}

	return strings.Join(parts, ", ")
}

func newestFirst(records []orderbackup.OrderRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}

func dollars(amount float64) string {
	return fmt.Sprintf("$%g", amount)
}

func orDefault(value string, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
