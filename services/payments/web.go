package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/centralshop/storebackend/lib/mycontext"
	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/myhttp"
	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/mypubsub"
	"github.com/centralshop/storebackend/lib/mystore"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/lib/myuuid"
	"github.com/centralshop/storebackend/services/cart/cartevents"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(store mystore.Store[PaymentRecord], pubsub mypubsub.PubSub, nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	logger := mylog.New("payments")

	return &webService{
		logger:  logger,
		service: newService(store, pubsub, nower, uuider, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/payments", s.registerPaymentPage()).Methods("POST")
	router.HandleFunc("/payments/cart/{cartCode}", s.listPaymentsPage()).Methods("GET")
	router.HandleFunc("/payments/cart/{cartCode}/superseded", s.markSupersededPage()).Methods("PUT")
	router.HandleFunc("/payments/refunds", s.refundsPage()).Methods("GET")
	router.HandleFunc("/payments/{idTransaccion}/rejection", s.rejectionReasonPage()).Methods("GET")
	router.HandleFunc("/payments/{idTransaccion}/status", s.updateStatusPage()).Methods("PUT")

	// Listen for checkout completions
	router.HandleFunc("/payments/event", s.handleEventEnvelope()).Methods("POST")

	err := s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

func (s *webService) handleEventEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		err := cartevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			responseWriter.WriteError(c, w, 7, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed event",
		})
	}
}

func (s *webService) registerPaymentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		var req RegisterPaymentRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		resp, err := s.service.registerPayment(c, req)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) listPaymentsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		cartCode, err := strconv.Atoi(mux.Vars(r)["cartCode"])
		if err != nil || cartCode <= 0 {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("invalid cart code")))
			return
		}

		records, err := s.service.listPaymentsForCart(c, cartCode)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, records)
	}
}

func (s *webService) markSupersededPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		cartCode, err := strconv.Atoi(mux.Vars(r)["cartCode"])
		if err != nil || cartCode <= 0 {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("invalid cart code")))
			return
		}

		err = s.service.markSuperseded(c, cartCode)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "superseded"})
	}
}

func (s *webService) refundsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		records, err := s.service.getRefunds(c)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, records)
	}
}

func (s *webService) rejectionReasonPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		reason, err := s.service.getRejectionReason(c, mux.Vars(r)["idTransaccion"])
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, map[string]string{"motivoFallo": reason})
	}
}

func (s *webService) updateStatusPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		var body struct {
			Estado      Status `json:"estado"`
			MotivoFallo string `json:"motivoFallo,omitempty"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		record, err := s.service.updatePaymentStatus(c, mux.Vars(r)["idTransaccion"], body.Estado, body.MotivoFallo)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, record)
	}
}
