package fallback

import (
	"context"
	"time"

	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/mystore"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/services/catalog"
)

const snapshotUID = "catalog_snapshot"

// maxSnapshotProducts bounds the durable snapshot so it stays a cheap single record.
const maxSnapshotProducts = 10

type Banner struct {
	Titulo string `json:"titulo"`
	Imagen string `json:"imagen"`
	Enlace string `json:"enlace"`
}

// Snapshot is the last-known-good catalog payload, read only when both the
// live call and the TTL cache have nothing to offer.
type Snapshot struct {
	Products   []catalog.Product `json:"products"`
	Categories []string          `json:"categories"`
	Banners    []Banner          `json:"banners"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type Store struct {
	store  mystore.Store[Snapshot]
	nower  mytime.Nower
	logger mylog.Logger
}

func NewStore(store mystore.Store[Snapshot], nower mytime.Nower) *Store {
	return &Store{
		store:  store,
		nower:  nower,
		logger: mylog.New("fallback"),
	}
}

// SaveSuccessfulResponse opportunistically refreshes the snapshot after a
// successful live fetch. Failures are logged only: keeping the snapshot
// fresh is never allowed to fail the serving path.
func (s *Store) SaveSuccessfulResponse(c context.Context, products []catalog.Product, categories []string) {
	err := s.store.RunInTransaction(c, func(c context.Context) error {
		snapshot, found, err := s.store.Get(c, snapshotUID)
		if err != nil {
			return err
		}
		if !found {
			snapshot = seededSnapshot()
		}

		if len(products) > 0 {
			if len(products) > maxSnapshotProducts {
				products = products[:maxSnapshotProducts]
			}
			snapshot.Products = products
		}
		if len(categories) > 0 {
			snapshot.Categories = categories
		}
		snapshot.UpdatedAt = s.nower.Now()

		return s.store.Put(c, snapshotUID, snapshot)
	})
	if err != nil {
		s.logger.Log(c, snapshotUID, mylog.SeverityWarn, "Failed to refresh catalog snapshot: %s", err)
	}
}

// FallbackProducts returns at most limit products from the snapshot, seeded
// defaults when no snapshot was ever written. It never fails.
func (s *Store) FallbackProducts(c context.Context, limit int) []catalog.Product {
	products := s.read(c).Products
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}

	return products
}

func (s *Store) FallbackCategories(c context.Context) []string {
	return s.read(c).Categories
}

func (s *Store) FallbackBanners(c context.Context) []Banner {
	return s.read(c).Banners
}

func (s *Store) read(c context.Context) Snapshot {
	snapshot, found, err := s.store.Get(c, snapshotUID)
	if err != nil || !found {
		if err != nil {
			s.logger.Log(c, snapshotUID, mylog.SeverityWarn, "Failed to read catalog snapshot, serving seeded defaults: %s", err)
		}
		return seededSnapshot()
	}

	return snapshot
}

func seededSnapshot() Snapshot {
	return Snapshot{
		Products: []catalog.Product{
			{
				Codigo:     1,
				Nombre:     "Notebook 14 pulgadas",
				Precio:     4500000,
				Venta:      4200000,
				Ruta:       "notebook-14-pulgadas",
				Imagenes:   []string{"/img/placeholder.png"},
				Categorias: []string{"electronica"},
			},
			{
				Codigo:     2,
				Nombre:     "Auriculares inalambricos",
				Precio:     350000,
				Venta:      350000,
				Ruta:       "auriculares-inalambricos",
				Imagenes:   []string{"/img/placeholder.png"},
				Categorias: []string{"electronica"},
			},
			{
				Codigo:     3,
				Nombre:     "Silla de escritorio",
				Precio:     980000,
				Venta:      890000,
				Ruta:       "silla-de-escritorio",
				Imagenes:   []string{"/img/placeholder.png"},
				Categorias: []string{"hogar"},
			},
		},
		Categories: []string{"electronica", "hogar", "deportes", "moda"},
		Banners: []Banner{
			{Titulo: "Ofertas de la semana", Imagen: "/img/banner-ofertas.png", Enlace: "/ofertas"},
			{Titulo: "Envio gratis desde 300.000", Imagen: "/img/banner-envio.png", Enlace: "/envios"},
		},
	}
}
