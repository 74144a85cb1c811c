package orderview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/udonthavemotion/BRISClothing/lib/mytime"
	"github.com/udonthavemotion/BRISClothing/services/orderbackup"
)

func TestListRecentOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	c, router, store, nower := setup(t, ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	assert.NoError(t, store.Append(c, recordOnDay(0, "cs_recent")))
	assert.NoError(t, store.Append(c, recordOnDay(10, "cs_old")))

	// when
	response := doGet(router, "/api/orders")

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	resp := decodeOrders(t, response)
	assert.True(t, resp.Success)
	assert.Equal(t, "Last 7 days", resp.Period)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "cs_recent", resp.Orders[0].OrderNumber)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	c, router, store, nower := setup(t, ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	assert.NoError(t, store.Append(c, recordOnDay(2, "cs_older")))
	assert.NoError(t, store.Append(c, recordOnDay(1, "cs_newer")))

	// when
	response := doGet(router, "/api/orders")

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	resp := decodeOrders(t, response)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "cs_newer", resp.Orders[0].OrderNumber)
	assert.Equal(t, "cs_older", resp.Orders[1].OrderNumber)
}

func TestListAllOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	c, router, store, _ := setup(t, ctrl)
	assert.NoError(t, store.Append(c, recordOnDay(0, "cs_recent")))
	assert.NoError(t, store.Append(c, recordOnDay(10, "cs_old")))

	// when
	response := doGet(router, "/api/orders?action=all")

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	resp := decodeOrders(t, response)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Total)
	assert.Empty(t, resp.Period)
}

func TestListTodaysOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	c, router, store, nower := setup(t, ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	assert.NoError(t, store.Append(c, recordOnDay(0, "cs_today")))
	assert.NoError(t, store.Append(c, recordOnDay(1, "cs_yesterday")))

	// when
	response := doGet(router, "/api/orders?action=today")

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	resp := decodeOrders(t, response)
	assert.Equal(t, mytime.ExampleTime.Format("2006-01-02"), resp.Date)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "cs_today", resp.Orders[0].OrderNumber)
}

func TestListOrdersByDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	c, router, store, _ := setup(t, ctrl)
	assert.NoError(t, store.Append(c, recordOnDay(0, "cs_today")))
	yesterday := recordOnDay(1, "cs_yesterday")
	assert.NoError(t, store.Append(c, yesterday))

	// when
	date := yesterday.Timestamp.Format("2006-01-02")
	response := doGet(router, "/api/orders?action=date&date="+date)

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	resp := decodeOrders(t, response)
	assert.Equal(t, date, resp.Date)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "cs_yesterday", resp.Orders[0].OrderNumber)
}

func TestListOrdersByDateWithoutDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	_, router, _, _ := setup(t, ctrl)

	// when
	response := doGet(router, "/api/orders?action=date")

	// then
	assert.Equal(t, http.StatusBadRequest, response.Code)
	assert.Contains(t, response.Body.String(), "Date parameter required")
}

func TestSearchOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	c, router, store, _ := setup(t, ctrl)
	match := recordOnDay(0, "cs_match")
	match.CustomerEmail = "khalil@brisclothing.com"
	assert.NoError(t, store.Append(c, match))
	assert.NoError(t, store.Append(c, recordOnDay(0, "cs_other")))

	// when
	response := doGet(router, "/api/orders?action=search&search=khalil")

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	resp := decodeOrders(t, response)
	assert.Equal(t, "khalil", resp.SearchTerm)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "cs_match", resp.Orders[0].OrderNumber)
}

func TestSearchOrdersWithoutTerm(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	_, router, _, _ := setup(t, ctrl)

	// when
	response := doGet(router, "/api/orders?action=search")

	// then
	assert.Equal(t, http.StatusBadRequest, response.Code)
	assert.Contains(t, response.Body.String(), "Search parameter required")
}

func TestOrderStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	c, router, store, _ := setup(t, ctrl)
	assert.NoError(t, store.Append(c, recordOnDay(0, "cs_a")))
	assert.NoError(t, store.Append(c, recordOnDay(1, "cs_b")))

	// when
	response := doGet(router, "/api/orders?action=stats")

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	resp := statsResponse{}
	assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Stats.TotalOrders)
	assert.Equal(t, 230.0, resp.Stats.TotalRevenue)
}

func TestOrderSummaryFormatting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	c, router, store, _ := setup(t, ctrl)
	record := recordOnDay(0, "cs_format")
	record.CustomerName = ""
	record.CustomerPhone = ""
	record.ShippingAddress = ""
	record.FulfillmentStatus = ""
	assert.NoError(t, store.Append(c, record))

	// when
	response := doGet(router, "/api/orders?action=all")

	// then
	assert.Equal(t, http.StatusOK, response.Code)
	resp := decodeOrders(t, response)
	order := resp.Orders[0]
	assert.Equal(t, "cs_format", order.OrderNumber)
	assert.Equal(t, record.Timestamp.Format("1/2/2006"), order.Date)
	assert.Equal(t, "N/A", order.Customer.Name)
	assert.Equal(t, "N/A", order.Customer.Phone)
	assert.Equal(t, "Brisco White Tee (Size: M) x2", order.Items)
	assert.Equal(t, "$110", order.Pricing.Subtotal)
	assert.Equal(t, "$5", order.Pricing.Shipping)
	assert.Equal(t, "$115", order.Pricing.Total)
	assert.Equal(t, "$20", order.Pricing.Savings)
	assert.Equal(t, "Address will be in Stripe", order.Shipping.Address)
	assert.Equal(t, orderbackup.FulfillmentPending, order.Status)
}

func TestListOrdersInvalidQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	_, router, _, nower := setup(t, ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

	// when: a semicolon-poisoned pair is dropped by the query parser
	response := doGet(router, "/api/orders?action=all;broken")

	// then: served as the default recent view
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "Last 7 days", decodeOrders(t, response).Period)
}

func recordOnDay(daysAgo int, sessionID string) orderbackup.OrderRecord {
	return orderbackup.OrderRecord{
		SessionID:     sessionID,
		CustomerEmail: fmt.Sprintf("%s@example.com", sessionID),
		Items:         []orderbackup.OrderItem{{Name: "Brisco White Tee", Size: "M", Quantity: 2}},
		TotalQuantity: 2,
		Subtotal:      110,
		ShippingCost:  5,
		TotalAmount:   115,
		TotalSavings:  20,
		Currency:      "usd",
		Timestamp:     mytime.ExampleTime.Add(-time.Duration(daysAgo) * 24 * time.Hour),
	}
}

func doGet(router *mux.Router, url string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, url, nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	return response
}

func decodeOrders(t *testing.T, response *httptest.ResponseRecorder) ordersResponse {
	t.Helper()

	resp := ordersResponse{}
	assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &resp))

	return resp
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, orderbackup.Store, *mytime.MockNower) {
	t.Helper()

	c := context.TODO()
	nower := mytime.NewMockNower(ctrl)
	storeNower := mytime.NewMockNower(ctrl)
	storeNower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	store := orderbackup.NewInMemoryStore(storeNower)

	sut := NewWebService(store, nower)

	router := mux.NewRouter()
	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, store, nower
}
