package cart

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
	"github.com/centralshop/storebackend/lib/mypublisher"
	"github.com/centralshop/storebackend/lib/mysequence"
	"github.com/centralshop/storebackend/lib/mystore"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/services/catalog"
	"github.com/centralshop/storebackend/services/payments"
	"github.com/centralshop/storebackend/services/resilience"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(store mystore.Store[Cart], sequence mysequence.Allocator, paymentsClient payments.Client, catalogClient catalog.Client, invoker *resilience.Invoker, replicator Replicator, publisher mypublisher.Publisher, nower mytime.Nower) *webService {
	logger := mylog.New("cart")

	return &webService{
		logger:  logger,
		service: newService(store, sequence, paymentsClient, catalogClient, invoker, replicator, publisher, nower, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/cart/items", s.addItemPage()).Methods("POST")
	router.HandleFunc("/cart", s.getCartPage()).Methods("GET")
	router.HandleFunc("/cart/{cartCode}/finish", s.finishCartPage()).Methods("POST")

	return nil
}

type addItemRequest struct {
	ClienteToken string `json:"clienteToken"`
	Cuenta       string `json:"cuenta,omitempty"`
	Codigo       int    `json:"codigo,omitempty"`
	Producto     Item   `json:"producto"`
}

func (s *webService) addItemPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		var req addItemRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}
		if req.ClienteToken == "" {
			responseWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("clienteToken is required")))
			return
		}

		result, err := s.service.addItem(c, req.ClienteToken, req.Cuenta, req.Codigo, req.Producto)
		if err != nil {
			responseWriter.WriteError(c, w, 3, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, result)
	}
}

func (s *webService) getCartPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		ownerToken := r.URL.Query().Get("clienteToken")
		if ownerToken == "" {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("clienteToken is required")))
			return
		}
		cartCode, _ := strconv.Atoi(r.URL.Query().Get("codigo"))

		result, err := s.service.getCart(c, ownerToken, r.URL.Query().Get("cuenta"), cartCode)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, result)
	}
}

type finishCartRequest struct {
	ClienteToken string       `json:"clienteToken"`
	Cuenta       string       `json:"cuenta,omitempty"`
	Pago         PaymentBlock `json:"pago"`
}

func (s *webService) finishCartPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		cartCode, err := strconv.Atoi(mux.Vars(r)["cartCode"])
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("invalid cart code")))
			return
		}

		var req finishCartRequest
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			responseWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		result, err := s.service.finishCart(c, req.ClienteToken, req.Cuenta, cartCode, req.Pago)
		if err != nil {
			responseWriter.WriteError(c, w, 3, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, result)
	}
}
