package checkoutstripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/udonthavemotion/BRISClothing/lib/mycontext"
	"github.com/udonthavemotion/BRISClothing/lib/myerrors"
	"github.com/udonthavemotion/BRISClothing/lib/myhttp"
	"github.com/udonthavemotion/BRISClothing/lib/mylog"
	"github.com/udonthavemotion/BRISClothing/lib/mytime"
	"github.com/udonthavemotion/BRISClothing/services/orderbackup"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

type webService struct {
	logger         mylog.Logger
	service        *service
	allowedOrigins []string
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(cfg Config, payer Payer, orderStore orderbackup.Store, nower mytime.Nower, allowedOrigins []string) (*webService, error) {
	logger := mylog.New("checkoutstripe")
	s, err := newService(cfg, payer, orderStore, nower, logger)
	if err != nil {
		return nil, err
	}

	return &webService{
		logger:         logger,
		service:        s,
		allowedOrigins: allowedOrigins,
	}, nil
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	cors := myhttp.CORSMiddleware(s.allowedOrigins)

	// Called by the storefront cart widget
	router.Handle("/api/checkout", cors(s.startCheckoutHandler())).Methods("POST", "OPTIONS")

	// Called by Stripe when a session's status changes
	router.HandleFunc("/api/stripe/webhook", s.webhookNotification()).Methods("POST")

	return nil
}

func (s *webService) startCheckoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		req := CheckoutRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		resp, err := s.service.startCheckout(c, req)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, resp)
	}
}

// webhookNotification is a security boundary: the signature is the
// authentication mechanism for this endpoint, nothing runs before it checks
// out.
func (s *webService) webhookNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		if s.service.cfg.WebhookSecret == "" {
			responseWriter.WriteError(c, w, 1, myerrors.NewNotConfiguredError(fmt.Errorf("Stripe webhook not configured")))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responseWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("error reading event payload: %s", err)))
			return
		}

		event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), s.service.cfg.WebhookSecret,
			webhook.ConstructEventOptions{
				IgnoreAPIVersionMismatch: true,
			})
		if err != nil {
			responseWriter.WriteError(c, w, 3, myerrors.NewInvalidInputError(fmt.Errorf("webhook signature verification failed: %s", err)))
			return
		}

		err = s.service.handleWebhookEvent(c, event)
		if err != nil {
			responseWriter.WriteError(c, w, 4, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, WebhookResponse{Received: true})
	}
}
