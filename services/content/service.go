package content

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/services/catalog"
	"github.com/centralshop/storebackend/services/catalogcache"
	"github.com/centralshop/storebackend/services/fallback"
	"github.com/centralshop/storebackend/services/resilience"
)

const (
	categoriesTTL = 5 * time.Minute
	categoriesCap = 10

	// keyed by user-supplied filter values, so the cap really matters here
	productPageTTL = 5 * time.Minute
	productPageCap = 50

	productByCodeTTL = 10 * time.Minute
	productByCodeCap = 200

	homeTTL = 2 * time.Minute
	homeCap = 50
)

type service struct {
	catalogClient catalog.Client
	invoker       *resilience.Invoker
	fallbackStore *fallback.Store

	categoryCache    *catalogcache.Cache[[]string]
	productPageCache *catalogcache.Cache[catalog.ProductPage]
	productCache     *catalogcache.Cache[catalog.Product]
	homeCache        *catalogcache.Cache[HomePayload]

	invokeOptions resilience.Options
	logger        mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(catalogClient catalog.Client, invoker *resilience.Invoker, fallbackStore *fallback.Store, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		catalogClient: catalogClient,
		invoker:       invoker,
		fallbackStore: fallbackStore,

		categoryCache:    catalogcache.New[[]string](categoriesTTL, categoriesCap, nower),
		productPageCache: catalogcache.New[catalog.ProductPage](productPageTTL, productPageCap, nower),
		productCache:     catalogcache.New[catalog.Product](productByCodeTTL, productByCodeCap, nower),
		homeCache:        catalogcache.New[HomePayload](homeTTL, homeCap, nower),

		logger: logger,
	}
}

// homeData assembles the home payload: cached whole, its parts read through
// the product-page and category caches, with the durable snapshot as the
// terminal degradation path. The caches only ever hold live data so a
// degraded response disappears as soon as the catalog recovers.
func (s *service) homeData(c context.Context, filter catalog.ProductFilter) (HomePayload, error) {
	key := catalogcache.Key("home", filter.Categoria, strconv.Itoa(filter.Limit), strconv.Itoa(filter.Offset))

	payload, err := s.homeCache.Read(c, key, func(c context.Context) (HomePayload, error) {
		return s.assembleHome(c, filter)
	})
	if err != nil {
		// assembleHome degrades instead of failing
		return HomePayload{}, err
	}

	return payload, nil
}

func (s *service) assembleHome(c context.Context, filter catalog.ProductFilter) (HomePayload, error) {
	source := SourceLive

	page, err := s.productPage(c, filter)
	if err != nil {
		s.logger.Log(c, "", mylog.SeverityWarn, "Serving fallback products: %s", err)
		source = SourceFallback
		items := s.fallbackStore.FallbackProducts(c, filter.Limit)
		page = catalog.ProductPage{Items: items, Total: len(items)}
	}

	categories, err := s.categories(c)
	if err != nil {
		s.logger.Log(c, "", mylog.SeverityWarn, "Serving fallback categories: %s", err)
		source = SourceFallback
		categories = s.fallbackStore.FallbackCategories(c)
	}

	return HomePayload{
		Banners:    s.fallbackStore.FallbackBanners(c),
		Products:   page.Items,
		Total:      page.Total,
		Categories: categories,
		Source:     source,
	}, nil
}

func (s *service) productPage(c context.Context, filter catalog.ProductFilter) (catalog.ProductPage, error) {
	key := catalogcache.KeyFromFilter(map[string]any{
		"categoria": filter.Categoria,
		"busqueda":  filter.Busqueda,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})

	return s.productPageCache.Read(c, key, func(c context.Context) (catalog.ProductPage, error) {
		return resilience.Do(c, s.invoker, "fetch_products", func(c context.Context) (catalog.ProductPage, error) {
			page, err := s.catalogClient.GetProducts(c, filter)
			if err != nil {
				return catalog.ProductPage{}, err
			}
			s.fallbackStore.SaveSuccessfulResponse(c, page.Items, nil)
			return page, nil
		}, s.invokeOptions, nil)
	})
}

func (s *service) categories(c context.Context) ([]string, error) {
	return s.categoryCache.Read(c, "categories", func(c context.Context) ([]string, error) {
		return resilience.Do(c, s.invoker, "fetch_categories", func(c context.Context) ([]string, error) {
			categories, err := s.catalogClient.GetCategories(c)
			if err != nil {
				return nil, err
			}
			s.fallbackStore.SaveSuccessfulResponse(c, nil, categories)
			return categories, nil
		}, s.invokeOptions, nil)
	})
}

// productByCode serves a single product detail, cached per code. The
// fallback snapshot is consulted before giving up.
func (s *service) productByCode(c context.Context, code int) (catalog.Product, error) {
	key := strconv.Itoa(code)

	product, err := s.productCache.Read(c, key, func(c context.Context) (catalog.Product, error) {
		return resilience.Do(c, s.invoker, "fetch_product_by_code", func(c context.Context) (catalog.Product, error) {
			products, err := s.catalogClient.GetProductsByCodes(c, []int{code}, nil)
			if err != nil {
				return catalog.Product{}, err
			}
			if len(products) == 0 {
				return catalog.Product{}, myerrors.NewNotFoundError(fmt.Errorf("product %d not found", code))
			}
			return products[0], nil
		}, s.invokeOptions, nil)
	})
	if err != nil {
		for _, p := range s.fallbackStore.FallbackProducts(c, 0) {
			if p.Codigo == code {
				return p, nil
			}
		}
		return catalog.Product{}, err
	}

	return product, nil
}
