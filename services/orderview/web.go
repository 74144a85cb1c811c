// Package orderview is the operator-facing reporting surface over the order
// backup store.
package orderview

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/udonthavemotion/BRISClothing/lib/mycontext"
	"github.com/udonthavemotion/BRISClothing/lib/myerrors"
	"github.com/udonthavemotion/BRISClothing/lib/myhttp"
	"github.com/udonthavemotion/BRISClothing/lib/mylog"
	"github.com/udonthavemotion/BRISClothing/lib/mytime"
	"github.com/udonthavemotion/BRISClothing/services/orderbackup"
)

const recentDays = 7

type webService struct {
	logger     mylog.Logger
	orderStore orderbackup.Store
	nower      mytime.Nower
	decoder    *form.Decoder
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(orderStore orderbackup.Store, nower mytime.Nower) *webService {
	return &webService{
		logger:     mylog.New("orderview"),
		orderStore: orderStore,
		nower:      nower,
		decoder:    form.NewDecoder(),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Deliberately open CORS: the operator dashboard is served elsewhere.
	cors := myhttp.AllowAllOriginsMiddleware()

	router.Handle("/api/orders", cors(s.listOrdersHandler())).Methods("GET", "OPTIONS")

	return nil
}

func (s *webService) listOrdersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		query := ordersQuery{}
		err := s.decoder.Decode(&query, r.URL.Query())
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing query: %s", err)))
			return
		}

		switch query.Action {
		case "all":
			s.writeOrders(c, w, responseWriter, ordersResponse{}, func() ([]orderbackup.OrderRecord, error) {
				return s.orderStore.ListAll(c)
			})

		case "today":
			today := s.nower.Now().Format("2006-01-02")
			s.writeOrders(c, w, responseWriter, ordersResponse{Date: today}, func() ([]orderbackup.OrderRecord, error) {
				return s.orderStore.ListByDate(c, today)
			})

		case "date":
			if query.Date == "" {
				responseWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("Date parameter required")))
				return
			}
			s.writeOrders(c, w, responseWriter, ordersResponse{Date: query.Date}, func() ([]orderbackup.OrderRecord, error) {
				return s.orderStore.ListByDate(c, query.Date)
			})

		case "search":
			if query.Search == "" {
				responseWriter.WriteError(c, w, 3, myerrors.NewInvalidInputError(fmt.Errorf("Search parameter required")))
				return
			}
			s.writeOrders(c, w, responseWriter, ordersResponse{SearchTerm: query.Search}, func() ([]orderbackup.OrderRecord, error) {
				return s.orderStore.Search(c, query.Search)
			})

		case "stats":
			stats, err := s.orderStore.Stats(c)
			if err != nil {
				responseWriter.WriteError(c, w, 4, myerrors.NewInternalError(err))
				return
			}
			responseWriter.Write(c, w, http.StatusOK, statsResponse{Success: true, Stats: stats})

		default:
			s.writeOrders(c, w, responseWriter, ordersResponse{Period: fmt.Sprintf("Last %d days", recentDays)}, func() ([]orderbackup.OrderRecord, error) {
				return s.recentOrders(c)
			})
		}
	}
}

func (s *webService) writeOrders(c context.Context, w http.ResponseWriter, responseWriter myhttp.ResponseWriter,
	resp ordersResponse, fetch func() ([]orderbackup.OrderRecord, error)) {

	records, err := fetch()
	if err != nil {
		responseWriter.WriteError(c, w, 5, myerrors.NewInternalError(err))
		return
	}

	resp.Success = true
	resp.Orders = summarizeAll(records)
	resp.Total = len(records)

	responseWriter.Write(c, w, http.StatusOK, resp)
}

func (s *webService) recentOrders(c context.Context) ([]orderbackup.OrderRecord, error) {
	records, err := s.orderStore.ListAll(c)
	if err != nil {
		return nil, err
	}

	cutoff := s.nower.Now().AddDate(0, 0, -recentDays)

	recent := []orderbackup.OrderRecord{}
	for _, record := range records {
		if record.Timestamp.After(cutoff) {
			recent = append(recent, record)
		}
	}

	newestFirst(recent)

	return recent, nil
}
