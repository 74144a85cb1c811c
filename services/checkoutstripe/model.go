package checkoutstripe

type Config struct {
	APIKey            string
	WebhookSecret     string
	StorefrontBaseURL string
	LineItemMode      string
}

// Both line-item layouts have been in production; the intended one is
// selected through configuration.
const (
	LineItemModeAggregate = "aggregate"
	LineItemModePerItem   = "per_item"
)

type CheckoutItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
}

type CheckoutRequest struct {
	Items          []CheckoutItem `json:"items"`
	CustomerEmail  string         `json:"customerEmail" validate:"omitempty,email"`
	ShippingOption string         `json:"shippingOption"`
}

type CheckoutResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type product struct {
	Name     string
	ImageURL string
}

var productCatalog = map[string]product{
	"brisco-white-tee": {
		Name:     "Brisco White Tee",
		ImageURL: "https://www.brisclothing.com/images/Product%20Assets/M%20copy.png",
	},
	"brisco-black-tee": {
		Name:     "Brisco Black Tee",
		ImageURL: "https://www.brisclothing.com/images/Product%20Assets/M%20copy.png",
	},
}

const defaultProductName = "BRISCO Tee"

// shippingRatesCents is keyed by the shipping option from the cart widget.
var shippingRatesCents = map[string]int64{
	"standard": 500,
	"express":  1200,
	"free":     0,
}

const defaultShippingOption = "standard"
