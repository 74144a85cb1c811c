// Package pricing holds the tiered shirt pricing. The storefront cart shows
// the same tiers client-side; the values computed here are the authoritative
// ones used to charge.
package pricing

const (
	singlePrice = 65 // 1 shirt
	duoPrice    = 55 // 2-3 shirts
	bulkPrice   = 50 // 4 or more
)

// UnitPrice returns the per-shirt price in whole dollars for the total
// quantity across the cart (not per line).
func UnitPrice(totalQuantity int) int64 {
	switch {
	case totalQuantity >= 4:
		return bulkPrice
	case totalQuantity >= 2:
		return duoPrice
	default:
		return singlePrice
	}
}

// Total returns the tiered cart total in whole dollars.
func Total(totalQuantity int) int64 {
	return int64(totalQuantity) * UnitPrice(totalQuantity)
}

// OriginalTotal is what the cart would cost without any tier discount.
func OriginalTotal(totalQuantity int) int64 {
	return int64(totalQuantity) * singlePrice
}

// Savings is the discount granted by the tier table.
func Savings(totalQuantity int) int64 {
	return OriginalTotal(totalQuantity) - Total(totalQuantity)
}

// UnitPriceCents is the unit price in cents, as the payment processor wants it.
func UnitPriceCents(totalQuantity int) int64 {
	return UnitPrice(totalQuantity) * 100
}

// TotalCents is the tiered cart total in cents.
func TotalCents(totalQuantity int) int64 {
	return Total(totalQuantity) * 100
}
