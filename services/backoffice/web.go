package backoffice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/centralshop/storebackend/lib/mycontext"
	"github.com/centralshop/storebackend/lib/myhttp"
	"github.com/centralshop/storebackend/lib/myhttpclient"
	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/myqueue"
	"github.com/centralshop/storebackend/lib/mystore"
)

type webService struct {
	logger      mylog.Logger
	backendURL  string
	sender      myhttpclient.HTTPSender
	recordStore mystore.Store[RequestRecord]
	queue       myqueue.TaskQueuer
}

// NewWebService serves the queue's delivery webhook: it pushes derived
// records to the configured back-office endpoint.
func NewWebService(backendURL string, sender myhttpclient.HTTPSender, recordStore mystore.Store[RequestRecord], queue myqueue.TaskQueuer) *webService {
	return &webService{
		logger:      mylog.New("backoffice"),
		backendURL:  backendURL,
		sender:      sender,
		recordStore: recordStore,
		queue:       queue,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/backoffice/task/{uid}", s.deliverRecordPage()).Methods("PUT", "POST")

	return nil
}

// deliverRecordPage is invoked by the task queue. It always acknowledges:
// a sale that failed to replicate must never reopen the checkout, so
// failures are logged and the task is retried by the queue until its last
// attempt.
func (s *webService) deliverRecordPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		uid := mux.Vars(r)["uid"]

		record, found, err := s.recordStore.Get(c, uid)
		if err != nil || !found {
			s.logger.Log(c, uid, mylog.SeverityWarn, "Unknown backoffice record %s", uid)
			responseWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "skipped"})
			return
		}
		if record.Delivered {
			responseWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "already delivered"})
			return
		}

		err = s.deliver(c, record)
		if err != nil {
			retryCount, maxRetries := s.queue.IsLastAttempt(c, uid)
			if maxRetries > 0 && retryCount >= maxRetries {
				s.logger.Log(c, uid, mylog.SeverityError, "Giving up on backoffice record %s after %d attempts: %s", uid, retryCount, err)
				responseWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "dropped"})
				return
			}

			s.logger.Log(c, uid, mylog.SeverityWarn, "Delivery of backoffice record %s failed: %s", uid, err)
			// non-2xx makes the queue retry
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		record.Delivered = true
		err = s.recordStore.Put(c, uid, record)
		if err != nil {
			s.logger.Log(c, uid, mylog.SeverityWarn, "Could not mark backoffice record %s delivered: %s", uid, err)
		}

		responseWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "delivered"})
	}
}

func (s *webService) deliver(c context.Context, record RequestRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error marshalling record: %s", err)
	}

	httpStatus, _, err := s.sender.Send(c, http.MethodPost, s.backendURL+"/solicitudes", payload)
	if err != nil {
		return fmt.Errorf("error posting record: %s", err)
	}
	if httpStatus < 200 || httpStatus > 299 {
		return fmt.Errorf("backoffice returned http status %d", httpStatus)
	}

	return nil
}
