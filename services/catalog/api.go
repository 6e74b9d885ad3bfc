package catalog

import "context"

//go:generate mockgen -source=api.go -package catalog -destination client_mock.go Client
type Client interface {
	GetProducts(c context.Context, filter ProductFilter) (ProductPage, error)
	GetProductsByCodes(c context.Context, codes []int, fields []string) ([]Product, error)
	GetCategories(c context.Context) ([]string, error)
}
