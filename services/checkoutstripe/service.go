package checkoutstripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v74"

	"github.com/udonthavemotion/BRISClothing/lib/myerrors"
	"github.com/udonthavemotion/BRISClothing/lib/mylog"
	"github.com/udonthavemotion/BRISClothing/lib/mytime"
	"github.com/udonthavemotion/BRISClothing/services/orderbackup"
	"github.com/udonthavemotion/BRISClothing/services/pricing"
)

// Stripe caps metadata values at 500 characters; the encoded items summary
// stays under that.
const metadataValueBudget = 450

type service struct {
	cfg        Config
	payer      Payer
	orderStore orderbackup.Store
	nower      mytime.Nower
	logger     mylog.Logger
	validate   *validator.Validate
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(cfg Config, payer Payer, orderStore orderbackup.Store, nower mytime.Nower, logger mylog.Logger) (*service, error) {
	if cfg.APIKey != "" {
		payer.UseAPIKey(cfg.APIKey)
	}

	return &service{
		cfg:        cfg,
		payer:      payer,
		orderStore: orderStore,
		nower:      nower,
		logger:     logger,
		validate:   validator.New(),
	}, nil
}

// startCheckout builds the checkout-session request with the authoritative
// server-side price and hands the shopper over to Stripe's hosted page.
func (s *service) startCheckout(c context.Context, req CheckoutRequest) (CheckoutResponse, error) {
	err := s.validateRequest(req)
	if err != nil {
		return CheckoutResponse{}, err
	}

	if s.cfg.APIKey == "" {
		return CheckoutResponse{}, myerrors.NewNotConfiguredError(fmt.Errorf("Stripe not configured"))
	}

	if req.ShippingOption == "" {
		req.ShippingOption = defaultShippingOption
	}

	totalQuantity := 0
	for _, item := range req.Items {
		totalQuantity += item.Quantity
	}

	s.logger.Log(c, req.CustomerEmail, mylog.SeverityInfo, "Start checkout: %d shirts for %s", totalQuantity, req.CustomerEmail)

	params := s.sessionParams(req, totalQuantity)

	sess, err := s.payer.CreateCheckoutSession(c, params)
	if err != nil {
		return CheckoutResponse{}, upstreamError(err)
	}

	// Best effort: a backup hiccup must never fail the customer-facing
	// payment flow.
	err = s.backupPendingOrder(c, sess, req, totalQuantity)
	if err != nil {
		s.logger.Log(c, sess.ID, mylog.SeverityWarn, "Order %s not backed up: %s", sess.ID, err)
	}

	return CheckoutResponse{
		Success:   true,
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil
}

func (s *service) validateRequest(req CheckoutRequest) error {
	if len(req.Items) == 0 {
		return myerrors.NewInvalidInputError(fmt.Errorf("Missing items"))
	}
	if req.CustomerEmail == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("Missing email"))
	}

	err := s.validate.Struct(req)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("Invalid email %s", req.CustomerEmail))
	}

	for _, item := range req.Items {
		if item.Quantity < 1 {
			return myerrors.NewInvalidInputErrorf("Invalid quantity %d for %s", item.Quantity, item.ProductID)
		}
	}

	if req.ShippingOption != "" {
		if _, known := shippingRatesCents[req.ShippingOption]; !known {
			return myerrors.NewInvalidInputErrorf("Unknown shipping option %s", req.ShippingOption)
		}
	}

	return nil
}

func (s *service) sessionParams(req CheckoutRequest, totalQuantity int) stripe.CheckoutSessionParams {
	lineItems := s.buildLineItems(req, totalQuantity)

	if rate := shippingRatesCents[req.ShippingOption]; rate > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%s Shipping", capitalize(req.ShippingOption))),
				},
				UnitAmount: stripe.Int64(rate),
			},
			Quantity: stripe.Int64(1),
		})
	}

	return stripe.CheckoutSessionParams{
		// Metadata lives on the embedded Params
		Params: stripe.Params{
			Metadata: map[string]string{
				"source":          "brisco_website",
				"totalQuantity":   fmt.Sprintf("%d", totalQuantity),
				"originalPrice":   fmt.Sprintf("%d", pricing.OriginalTotal(totalQuantity)),
				"effectivePrice":  fmt.Sprintf("%d", pricing.UnitPrice(totalQuantity)),
				"totalSavings":    fmt.Sprintf("%d", pricing.Savings(totalQuantity)),
				"discountApplied": fmt.Sprintf("%d", pricing.Savings(totalQuantity)),
				"items":           encodeItemsSummary(req.Items),
			},
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.cfg.StorefrontBaseURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(s.cfg.StorefrontBaseURL + "/cancel"),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"US", "CA"}),
		},
		BillingAddressCollection: stripe.String("required"),
	}
}

func (s *service) buildLineItems(req CheckoutRequest, totalQuantity int) []*stripe.CheckoutSessionLineItemParams {
	if s.cfg.LineItemMode == LineItemModePerItem {
		lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
		for _, item := range req.Items {
			name, imageURL := productInfo(item.ProductID)
			description := "Be Your Own Light - Premium Streetwear"
			if item.Size != "" {
				description = fmt.Sprintf("Size %s - %s", item.Size, description)
			}

			lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(name),
						Description: stripe.String(description),
						Images:      stripe.StringSlice([]string{imageURL}),
					},
					// unit price follows the cart-wide tier, never the client
					UnitAmount: stripe.Int64(pricing.UnitPriceCents(totalQuantity)),
				},
				Quantity: stripe.Int64(int64(item.Quantity)),
			})
		}

		return lineItems
	}

	shirts := "shirts"
	if totalQuantity == 1 {
		shirts = "shirt"
	}

	return []*stripe.CheckoutSessionLineItemParams{
		{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(fmt.Sprintf("BRISCO Collection (%d %s)", totalQuantity, shirts)),
					Description: stripe.String("Be Your Own Light - Premium Streetwear"),
					Images:      stripe.StringSlice([]string{productCatalog["brisco-white-tee"].ImageURL}),
				},
				UnitAmount: stripe.Int64(pricing.TotalCents(totalQuantity)),
			},
			Quantity: stripe.Int64(1),
		},
	}
}

func (s *service) backupPendingOrder(c context.Context, sess stripe.CheckoutSession, req CheckoutRequest, totalQuantity int) error {
	now := s.nower.Now()

	subtotal := float64(pricing.Total(totalQuantity))
	shippingCost := float64(shippingRatesCents[req.ShippingOption]) / 100
	totalAmount := subtotal + shippingCost
	if sess.AmountSubtotal > 0 {
		subtotal = float64(sess.AmountSubtotal) / 100
	}
	if sess.AmountTotal > 0 {
		totalAmount = float64(sess.AmountTotal) / 100
		shippingCost = totalAmount - subtotal
	}

	items := make([]orderbackup.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		name, _ := productInfo(item.ProductID)
		items = append(items, orderbackup.OrderItem{
			Name:     name,
			Size:     item.Size,
			Quantity: item.Quantity,
		})
	}

	return s.orderStore.Append(c, orderbackup.OrderRecord{
		SessionID:         sess.ID,
		CustomerEmail:     req.CustomerEmail,
		Items:             items,
		TotalQuantity:     totalQuantity,
		Subtotal:          subtotal,
		ShippingCost:      shippingCost,
		TotalAmount:       totalAmount,
		TotalSavings:      float64(pricing.Savings(totalQuantity)),
		Currency:          "usd",
		OriginalPrice:     fmt.Sprintf("%d", pricing.OriginalTotal(totalQuantity)),
		EffectivePrice:    fmt.Sprintf("%d", pricing.UnitPrice(totalQuantity)),
		ShippingMethod:    req.ShippingOption,
		ShippingAddress:   "Will be collected by Stripe",
		OrderStatus:       "paid",
		FulfillmentStatus: orderbackup.FulfillmentPending,
		Timestamp:         now,
		Source:            "brisco_website",
		InternalOrderID:   orderbackup.NewInternalOrderID(now),
	})
}

// handleWebhookEvent processes one verified Stripe event. Once the signature
// has checked out the processor always gets a success response, so a backup
// hiccup never triggers a retry storm.
func (s *service) handleWebhookEvent(c context.Context, event stripe.Event) error {
	s.logger.Log(c, event.ID, mylog.SeverityInfo, "Processing event %s", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		sess := stripe.CheckoutSession{}
		err := json.Unmarshal(event.Data.Raw, &sess)
		if err != nil {
			s.logger.Log(c, event.ID, mylog.SeverityError, "Malformed session payload: %s", err)

			return nil
		}

		s.reconcileOrder(c, sess)

	case "payment_intent.payment_failed":
		paymentIntent := stripe.PaymentIntent{}
		err := json.Unmarshal(event.Data.Raw, &paymentIntent)
		if err == nil {
			s.logger.Log(c, paymentIntent.ID, mylog.SeverityWarn, "Payment failed: %s", paymentIntent.ID)
		}

	default:
		s.logger.Log(c, event.ID, mylog.SeverityInfo, "Unhandled event type: %s", event.Type)
	}

	return nil
}

// reconcileOrder merges the confirmed payment and shipping details into the
// backup record for this session.
func (s *service) reconcileOrder(c context.Context, sess stripe.CheckoutSession) {
	full, err := s.payer.GetCheckoutSession(c, sess.ID)
	if err != nil {
		s.logger.Log(c, sess.ID, mylog.SeverityWarn, "Session detail fetch failed for %s, reconciling from event: %s", sess.ID, err)
	} else {
		sess = full
	}

	patch := orderbackup.Patch{
		"orderStatus":       "paid",
		"fulfillmentStatus": orderbackup.FulfillmentReadyToShip,
	}

	if sess.CustomerEmail != "" {
		patch["customerEmail"] = sess.CustomerEmail
	}
	if sess.CustomerDetails != nil {
		if sess.CustomerDetails.Name != "" {
			patch["customerName"] = sess.CustomerDetails.Name
		}
		if sess.CustomerDetails.Phone != "" {
			patch["customerPhone"] = sess.CustomerDetails.Phone
		}
		if sess.CustomerDetails.Email != "" {
			patch["customerEmail"] = sess.CustomerDetails.Email
		}
	}
	if sess.ShippingDetails != nil && sess.ShippingDetails.Address != nil {
		patch["shippingAddress"] = formatAddress(sess.ShippingDetails.Address)
	}
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		patch["stripePaymentIntentId"] = sess.PaymentIntent.ID
	}
	if sess.Customer != nil && sess.Customer.ID != "" {
		patch["stripeCustomerId"] = sess.Customer.ID
	}
	if sess.AmountSubtotal > 0 {
		patch["subtotal"] = float64(sess.AmountSubtotal) / 100
	}
	if sess.AmountTotal > 0 {
		patch["totalAmount"] = float64(sess.AmountTotal) / 100
		if sess.AmountSubtotal > 0 {
			patch["shippingCost"] = float64(sess.AmountTotal-sess.AmountSubtotal) / 100
		}
	}

	err = s.orderStore.Merge(c, sess.ID, patch)
	if err != nil {
		s.logger.Log(c, sess.ID, mylog.SeverityWarn, "Order %s not reconciled: %s", sess.ID, err)

		return
	}

	s.logger.Log(c, sess.ID, mylog.SeverityInfo, "Order %s ready to ship", sess.ID)
}

func productInfo(productID string) (string, string) {
	p, known := productCatalog[productID]
	if !known {
		return defaultProductName, productCatalog["brisco-white-tee"].ImageURL
	}

	return p.Name, p.ImageURL
}

// encodeItemsSummary packs the cart into one bounded metadata value so an
// operator can reconstruct the order from the Stripe dashboard alone.
func encodeItemsSummary(items []CheckoutItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s|%s|%d", item.ProductID, item.Size, item.Quantity))
	}

	summary := strings.Join(parts, ";")
	if len(summary) > metadataValueBudget {
		// cut on a rune boundary, Stripe rejects invalid UTF-8
		cut := metadataValueBudget
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut]
	}

	return summary
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

func formatAddress(address *stripe.Address) string {
	parts := []string{}
	for _, part := range []string{address.Line1, address.Line2, address.City, address.State, address.PostalCode, address.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, ", ")
}

// upstreamError surfaces the Stripe failure detail without ever leaking the
// secret key.
func upstreamError(err error) error {
	stripeErr, ok := err.(*stripe.Error)
	if ok {
		return myerrors.NewUpstreamErrorf("stripe error: %s (type=%s, code=%s)", stripeErr.Msg, stripeErr.Type, stripeErr.Code)
	}

	return myerrors.NewUpstreamErrorf("stripe error: %s", err)
}
