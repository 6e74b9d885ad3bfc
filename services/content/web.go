package content

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/centralshop/storebackend/lib/mycontext"
	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/myhttp"
	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/services/catalog"
	"github.com/centralshop/storebackend/services/fallback"
	"github.com/centralshop/storebackend/services/resilience"
)

const defaultHomePageSize = 12

type webService struct {
	logger  mylog.Logger
	service *service
	invoker *resilience.Invoker
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(catalogClient catalog.Client, invoker *resilience.Invoker, fallbackStore *fallback.Store, nower mytime.Nower) *webService {
	logger := mylog.New("content")

	return &webService{
		logger:  logger,
		service: newService(catalogClient, invoker, fallbackStore, nower, logger),
		invoker: invoker,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/content/home", s.homePage()).Methods("GET")
	router.HandleFunc("/content/product/{code}", s.productPage()).Methods("GET")

	router.HandleFunc("/ops/breakers", s.breakerStatesPage()).Methods("GET")

	return nil
}

func (s *webService) homePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		filter, err := catalog.FilterFromValues(r.URL.Query())
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}
		if filter.Limit <= 0 {
			filter.Limit = defaultHomePageSize
		}

		payload, err := s.service.homeData(c, filter)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, payload)
	}
}

func (s *webService) productPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		code, err := strconv.Atoi(mux.Vars(r)["code"])
		if err != nil || code <= 0 {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("invalid product code")))
			return
		}

		product, err := s.service.productByCode(c, code)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, product)
	}
}

func (s *webService) breakerStatesPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		states := map[string]string{}
		for key, snapshot := range s.invoker.States() {
			states[key] = snapshot.State.String()
		}

		responseWriter.Write(c, w, http.StatusOK, states)
	}
}
