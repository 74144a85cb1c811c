package crmrelay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/udonthavemotion/BRISClothing/lib/myhttpclient"
	"github.com/udonthavemotion/BRISClothing/lib/mytime"
)

const testWebhookURL = "https://hooks.gohighlevel.example/abc"

func TestRelayLead(t *testing.T) {

	t.Run("Relay lead", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, sender, nower := setup(t, ctrl, testWebhookURL)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		var sentBody []byte
		sender.EXPECT().Send(gomock.Any(), http.MethodPost, testWebhookURL, gomock.Any()).DoAndReturn(
			func(c context.Context, method string, url string, body []byte) (int, []byte, error) {
				sentBody = body
				return 200, []byte(`{"success":true}`), nil
			})

		// when
		response := doRequest(router, `{"email": "marc@example.com", "name": "Marc"}`)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), `"ok": true`)

		payload := string(sentBody)
		assert.Contains(t, payload, `"email":"marc@example.com"`)
		assert.Contains(t, payload, `"name":"Marc"`)
		assert.Contains(t, payload, `"source":"brisclothing.com"`)
		assert.Contains(t, payload, `"tag":"exclusive_access"`)
	})

	t.Run("Missing email", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		router, _, _ := setup(t, ctrl, testWebhookURL)

		response := doRequest(router, `{"name": "Marc"}`)

		assert.Equal(t, 400, response.Code)
		assert.Contains(t, response.Body.String(), "Missing email")
	})

	t.Run("Webhook url not configured", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		router, _, _ := setup(t, ctrl, "")

		response := doRequest(router, `{"email": "marc@example.com"}`)

		assert.Equal(t, 503, response.Code)
		assert.Contains(t, response.Body.String(), "not configured")
	})

	t.Run("CRM rejects the lead", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		router, sender, nower := setup(t, ctrl, testWebhookURL)

		nower.EXPECT().Now().Return(mytime.ExampleTime)
		sender.EXPECT().Send(gomock.Any(), http.MethodPost, testWebhookURL, gomock.Any()).
			Return(422, []byte(`{"error":"invalid contact"}`), nil)

		response := doRequest(router, `{"email": "marc@example.com"}`)

		assert.Equal(t, 502, response.Code)
		assert.Contains(t, response.Body.String(), "invalid contact")
	})
}

func doRequest(router *mux.Router, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, "/api/crm-relay", strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	return response
}

func setup(t *testing.T, ctrl *gomock.Controller, webhookURL string) (*mux.Router, *myhttpclient.MockHTTPSender, *mytime.MockNower) {
	t.Helper()

	sender := myhttpclient.NewMockHTTPSender(ctrl)
	nower := mytime.NewMockNower(ctrl)

	sut := NewWebService(webhookURL, sender, nower, []string{"https://www.brisclothing.com"})
	router := mux.NewRouter()
	assert.NoError(t, sut.RegisterEndpoints(context.TODO(), router))

	return router, sender, nower
}
