// Package crmrelay forwards captured email/name pairs to the GoHighLevel
// marketing webhook so the storefront never talks to the CRM directly.
package crmrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/udonthavemotion/BRISClothing/lib/myerrors"
	"github.com/udonthavemotion/BRISClothing/lib/myhttpclient"
	"github.com/udonthavemotion/BRISClothing/lib/mylog"
	"github.com/udonthavemotion/BRISClothing/lib/mytime"
)

type LeadRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LeadResponse struct {
	OK bool `json:"ok"`
}

// ghlPayload is the fixed shape the GoHighLevel automation expects.
type ghlPayload struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Tag       string    `json:"tag"`
	Timestamp time.Time `json:"timestamp"`
}

type service struct {
	webhookURL string
	sender     myhttpclient.HTTPSender
	nower      mytime.Nower
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(webhookURL string, sender myhttpclient.HTTPSender, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		webhookURL: webhookURL,
		sender:     sender,
		nower:      nower,
		logger:     logger,
	}
}

func (s *service) relayLead(c context.Context, req LeadRequest) error {
	if req.Email == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("Missing email"))
	}

	if s.webhookURL == "" {
		return myerrors.NewNotConfiguredError(fmt.Errorf("CRM webhook not configured"))
	}

	payload, err := json.Marshal(ghlPayload{
		Email:     req.Email,
		Name:      req.Name,
		Source:    "brisclothing.com",
		Tag:       "exclusive_access",
		Timestamp: s.nower.Now(),
	})
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	s.logger.Log(c, req.Email, mylog.SeverityInfo, "Relaying lead %s to CRM", req.Email)

	status, body, err := s.sender.Send(c, http.MethodPost, s.webhookURL, payload)
	if err != nil {
		return myerrors.NewUpstreamErrorf("error calling CRM webhook: %s", err)
	}
	if status < 200 || status >= 300 {
		return myerrors.NewUpstreamErrorf("CRM webhook returned %d: %s", status, string(body))
	}

	return nil
}
