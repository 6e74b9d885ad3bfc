package catalog

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/myhttpclient"
)

func TestGetProducts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	sender := myhttpclient.NewMockHTTPSender(ctrl)
	client := NewClient("http://catalog:8080", sender)

	sender.EXPECT().Send(gomock.Any(), http.MethodGet,
		"http://catalog:8080/products?categoria=electronica&limit=6", gomock.Nil()).
		Return(http.StatusOK, []byte(`{"items":[{"codigo":101,"nombre":"Notebook","precio":4500000}],"total":1}`), nil)

	page, err := client.GetProducts(c, ProductFilter{Categoria: "electronica", Limit: 6})
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 101, page.Items[0].Codigo)
	assert.Equal(t, "Notebook", page.Items[0].Nombre)
}

func TestGetProductsByCodes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	sender := myhttpclient.NewMockHTTPSender(ctrl)
	client := NewClient("http://catalog:8080", sender)

	sender.EXPECT().Send(gomock.Any(), http.MethodPost,
		"http://catalog:8080/products/by-codes", []byte(`{"codigos":[101,102],"campos":["nombre","precio"]}`)).
		Return(http.StatusOK, []byte(`[{"codigo":101,"nombre":"Notebook"},{"codigo":102,"nombre":"Mouse"}]`), nil)

	products, err := client.GetProductsByCodes(c, []int{101, 102}, []string{"nombre", "precio"})
	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, "Mouse", products[1].Nombre)
}

func TestGetCategories(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	sender := myhttpclient.NewMockHTTPSender(ctrl)
	client := NewClient("http://catalog:8080", sender)

	sender.EXPECT().Send(gomock.Any(), http.MethodGet, "http://catalog:8080/categories", gomock.Nil()).
		Return(http.StatusOK, []byte(`["electronica","hogar"]`), nil)

	categories, err := client.GetCategories(c)
	assert.NoError(t, err)
	assert.Equal(t, []string{"electronica", "hogar"}, categories)
}

func TestCatalogUnreachable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	sender := myhttpclient.NewMockHTTPSender(ctrl)
	client := NewClient("http://catalog:8080", sender)

	sender.EXPECT().Send(gomock.Any(), http.MethodGet, "http://catalog:8080/categories", gomock.Nil()).
		Return(0, nil, fmt.Errorf("connection refused"))

	_, err := client.GetCategories(c)
	assert.Error(t, err)
	assert.True(t, myerrors.IsUnavailable(err))
}

func TestCatalogErrorStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	sender := myhttpclient.NewMockHTTPSender(ctrl)
	client := NewClient("http://catalog:8080", sender)

	sender.EXPECT().Send(gomock.Any(), http.MethodGet, "http://catalog:8080/categories", gomock.Nil()).
		Return(http.StatusInternalServerError, []byte(`{}`), nil)

	_, err := client.GetCategories(c)
	assert.Error(t, err)
	assert.True(t, myerrors.IsUnavailable(err))
}
