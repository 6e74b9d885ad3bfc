package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/myhttpclient"
)

type httpClient struct {
	baseURL string
	sender  myhttpclient.HTTPSender
}

func NewClient(baseURL string, sender myhttpclient.HTTPSender) Client {
	return &httpClient{
		baseURL: baseURL,
		sender:  sender,
	}
}

func (cl *httpClient) RegisterPayment(c context.Context, req RegisterPaymentRequest) (RegisterPaymentResponse, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return RegisterPaymentResponse{}, myerrors.NewInternalError(fmt.Errorf("error marshalling payment request: %s", err))
	}

	httpStatus, responseBody, err := cl.sender.Send(c, http.MethodPost, cl.baseURL+"/payments", requestBody)
	if err != nil {
		return RegisterPaymentResponse{}, myerrors.NewUnavailableError(fmt.Errorf("error calling payments service: %s", err))
	}
	if httpStatus != http.StatusOK {
		return RegisterPaymentResponse{}, myerrors.NewUnavailableError(fmt.Errorf("payments service returned http status %d", httpStatus))
	}

	var resp RegisterPaymentResponse
	err = json.Unmarshal(responseBody, &resp)
	if err != nil {
		return RegisterPaymentResponse{}, myerrors.NewInternalError(fmt.Errorf("error parsing payments response: %s", err))
	}

	return resp, nil
}

func (cl *httpClient) MarkSuperseded(c context.Context, cartCode int) error {
	requestURL := fmt.Sprintf("%s/payments/cart/%d/superseded", cl.baseURL, cartCode)

	httpStatus, _, err := cl.sender.Send(c, http.MethodPut, requestURL, nil)
	if err != nil {
		return myerrors.NewUnavailableError(fmt.Errorf("error calling payments service: %s", err))
	}
	if httpStatus != http.StatusOK {
		return myerrors.NewUnavailableError(fmt.Errorf("payments service returned http status %d", httpStatus))
	}

	return nil
}
