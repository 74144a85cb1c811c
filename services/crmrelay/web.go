package crmrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/udonthavemotion/BRISClothing/lib/mycontext"
	"github.com/udonthavemotion/BRISClothing/lib/myerrors"
	"github.com/udonthavemotion/BRISClothing/lib/myhttp"
	"github.com/udonthavemotion/BRISClothing/lib/myhttpclient"
	"github.com/udonthavemotion/BRISClothing/lib/mylog"
	"github.com/udonthavemotion/BRISClothing/lib/mytime"
)

type webService struct {
	logger         mylog.Logger
	service        *service
	allowedOrigins []string
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(webhookURL string, sender myhttpclient.HTTPSender, nower mytime.Nower, allowedOrigins []string) *webService {
	logger := mylog.New("crmrelay")

	return &webService{
		logger:         logger,
		service:        newService(webhookURL, sender, nower, logger),
		allowedOrigins: allowedOrigins,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	cors := myhttp.CORSMiddleware(s.allowedOrigins)

	router.Handle("/api/crm-relay", cors(s.relayLeadHandler())).Methods("POST", "OPTIONS")

	return nil
}

func (s *webService) relayLeadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		req := LeadRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		err = s.service.relayLead(c, req)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, LeadResponse{OK: true})
	}
}
