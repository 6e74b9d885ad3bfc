package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

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

func (cl *httpClient) GetProducts(c context.Context, filter ProductFilter) (ProductPage, error) {
	params := url.Values{}
	if filter.Categoria != "" {
		params.Set("categoria", filter.Categoria)
	}
	if filter.Busqueda != "" {
		params.Set("busqueda", filter.Busqueda)
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		params.Set("offset", strconv.Itoa(filter.Offset))
	}

	requestURL := cl.baseURL + "/products"
	if encoded := params.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	var page ProductPage
	err := cl.call(c, http.MethodGet, requestURL, nil, &page)
	if err != nil {
		return ProductPage{}, err
	}

	return page, nil
}

func (cl *httpClient) GetProductsByCodes(c context.Context, codes []int, fields []string) ([]Product, error) {
	requestBody, err := json.Marshal(struct {
		Codigos []int    `json:"codigos"`
		Campos  []string `json:"campos,omitempty"`
	}{
		Codigos: codes,
		Campos:  fields,
	})
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error marshalling product codes: %s", err))
	}

	var products []Product
	err = cl.call(c, http.MethodPost, cl.baseURL+"/products/by-codes", requestBody, &products)
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (cl *httpClient) GetCategories(c context.Context) ([]string, error) {
	var categories []string
	err := cl.call(c, http.MethodGet, cl.baseURL+"/categories", nil, &categories)
	if err != nil {
		return nil, err
	}

	return categories, nil
}

func (cl *httpClient) call(c context.Context, method string, requestURL string, requestBody []byte, response interface{}) error {
	httpStatus, responseBody, err := cl.sender.Send(c, method, requestURL, requestBody)
	if err != nil {
		return myerrors.NewUnavailableError(fmt.Errorf("error calling catalog service: %s", err))
	}
	if httpStatus != http.StatusOK {
		return myerrors.NewUnavailableError(fmt.Errorf("catalog service returned http status %d", httpStatus))
	}

	err = json.Unmarshal(responseBody, response)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error parsing catalog response: %s", err))
	}

	return nil
}
