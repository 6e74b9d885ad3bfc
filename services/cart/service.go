package cart

import (
	"context"

	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/mypublisher"
	"github.com/centralshop/storebackend/lib/mysequence"
	"github.com/centralshop/storebackend/lib/mystore"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/services/catalog"
	"github.com/centralshop/storebackend/services/payments"
	"github.com/centralshop/storebackend/services/resilience"
)

const sequenceName = "carrito"

// Replicator pushes finalized carts to the back office, off the critical path.
type Replicator interface {
	Replicate(c context.Context, crt Cart, payment payments.RegisterPaymentData) error
}

type service struct {
	cartStore      cartStore
	sequence       mysequence.Allocator
	paymentsClient payments.Client
	catalogClient  catalog.Client
	invoker        *resilience.Invoker
	replicator     Replicator
	publisher      mypublisher.Publisher
	nower          mytime.Nower
	locks          *cartLocks
	invokeOptions  resilience.Options
	logger         mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(store mystore.Store[Cart], sequence mysequence.Allocator, paymentsClient payments.Client, catalogClient catalog.Client, invoker *resilience.Invoker, replicator Replicator, publisher mypublisher.Publisher, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		cartStore:      cartStore{store: store},
		sequence:       sequence,
		paymentsClient: paymentsClient,
		catalogClient:  catalogClient,
		invoker:        invoker,
		replicator:     replicator,
		publisher:      publisher,
		nower:          nower,
		locks:          newCartLocks(),
		logger:         logger,
	}
}
