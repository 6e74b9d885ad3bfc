package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/mypublisher"
	"github.com/centralshop/storebackend/lib/mysequence"
	"github.com/centralshop/storebackend/lib/mystore"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/services/catalog"
	"github.com/centralshop/storebackend/services/payments"
	"github.com/centralshop/storebackend/services/resilience"
)

type fakeReplicator struct {
	mutex    sync.Mutex
	carts    []Cart
	payments []payments.RegisterPaymentData
}

func (r *fakeReplicator) Replicate(c context.Context, crt Cart, payment payments.RegisterPaymentData) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.carts = append(r.carts, crt)
	r.payments = append(r.payments, payment)
	return nil
}

type fixture struct {
	ctrl           *gomock.Controller
	service        *service
	store          mystore.Store[Cart]
	paymentsClient *payments.MockClient
	catalogClient  *catalog.MockClient
	publisher      *mypublisher.MockPublisher
	replicator     *fakeReplicator
}

func setup(t *testing.T) (context.Context, *fixture) {
	ctrl := gomock.NewController(t)
	c := context.TODO()

	store, _, _ := mystore.NewInMemoryStore[Cart](c)
	sequenceStore, _, _ := mystore.NewInMemoryStore[mysequence.Sequence](c)

	f := &fixture{
		ctrl:           ctrl,
		store:          store,
		paymentsClient: payments.NewMockClient(ctrl),
		catalogClient:  catalog.NewMockClient(ctrl),
		publisher:      mypublisher.NewMockPublisher(ctrl),
		replicator:     &fakeReplicator{},
	}

	nower := mytime.RealNower{}
	f.service = newService(store, mysequence.New(sequenceStore), f.paymentsClient, f.catalogClient,
		resilience.NewInvoker(nower), f.replicator, f.publisher, nower, mylog.New("cart"))
	f.service.invokeOptions = resilience.Options{Retries: 2, RetryDelay: time.Millisecond}

	return c, f
}

func TestAddItemCreatesCart(t *testing.T) {
	c, f := setup(t)
	defer f.ctrl.Finish()

	f.publisher.EXPECT().Publish(gomock.Any(), "cart", gomock.Any()).Return(nil)

	result, err := f.service.addItem(c, "device-abc", "ana@example.com", 0, Item{Codigo: 101, Cantidad: 2, Precio: 1000})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "CARRITO CREADO CON ÉXITO", result.Message)
	assert.Len(t, result.Carts, 1)

	created := result.Carts[0]
	assert.Equal(t, 1, created.Codigo)
	assert.True(t, created.IsActive())
	assert.Len(t, created.Articulos.Contado, 1)
	assert.Empty(t, created.Articulos.Credito)
}

func TestAddItemMergeIdempotence(t *testing.T) {
	c, f := setup(t)
	defer f.ctrl.Finish()

	f.publisher.EXPECT().Publish(gomock.Any(), "cart", gomock.Any()).Return(nil)

	_, err := f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 101, Cantidad: 2, Precio: 1000})
	assert.NoError(t, err)

	result, err := f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 101, Cantidad: 2, Precio: 1000})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "PRODUCTO AGREGADO AL CARRITO", result.Message)

	cart := result.Carts[0]
	assert.Len(t, cart.Articulos.Contado, 1)
	assert.Equal(t, 4, cart.Articulos.Contado[0].Cantidad)
}

func TestAddItemCreditTieBreakOnInstallments(t *testing.T) {
	c, f := setup(t)
	defer f.ctrl.Finish()

	f.publisher.EXPECT().Publish(gomock.Any(), "cart", gomock.Any()).Return(nil)

	_, err := f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 101, Cantidad: 1, CantidadCuotas: 6})
	assert.NoError(t, err)

	// same product on different installment terms stays a separate line
	result, err := f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 101, Cantidad: 1, CantidadCuotas: 12})
	assert.NoError(t, err)
	assert.Len(t, result.Carts[0].Articulos.Credito, 2)

	// same product and same terms merges
	result, err = f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 101, Cantidad: 2, CantidadCuotas: 6})
	assert.NoError(t, err)
	credito := result.Carts[0].Articulos.Credito
	assert.Len(t, credito, 2)
	assert.Equal(t, 3, credito[0].Cantidad)
}

func TestAddItemRejectsInvalidProduct(t *testing.T) {
	c, f := setup(t)
	defer f.ctrl.Finish()

	result, err := f.service.addItem(c, "device-abc", "", 0, Item{})
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Producto no válido", result.Message)
}

func TestAddItemReconcilesStaleProceso(t *testing.T) {
	c, f := setup(t)
	defer f.ctrl.Finish()

	f.publisher.EXPECT().Publish(gomock.Any(), "cart", gomock.Any()).Return(nil)

	result, err := f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 101, Cantidad: 1})
	assert.NoError(t, err)
	code := result.Carts[0].Codigo

	// leave the cart mid-checkout
	crt, _, _ := f.service.cartStore.getByCode(c, code)
	crt.Proceso = "TXN_stale"
	assert.NoError(t, f.service.cartStore.put(c, crt))

	f.paymentsClient.EXPECT().MarkSuperseded(gomock.Any(), code).Return(nil)

	result, err = f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 102, Cantidad: 1})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Carts[0].Proceso)
}

func TestAddItemByExplicitCodeIgnoresState(t *testing.T) {
	c, f := setup(t)
	defer f.ctrl.Finish()

	f.publisher.EXPECT().Publish(gomock.Any(), "cart", gomock.Any()).Return(nil)

	result, err := f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 101, Cantidad: 1})
	assert.NoError(t, err)
	code := result.Carts[0].Codigo

	crt, _, _ := f.service.cartStore.getByCode(c, code)
	crt.Estado = estadoFinalizado
	assert.NoError(t, f.service.cartStore.put(c, crt))

	// explicit code finds the finalized cart instead of creating a new one
	result, err = f.service.addItem(c, "device-abc", "", code, Item{Codigo: 102, Cantidad: 1})
	assert.NoError(t, err)
	assert.Equal(t, "PRODUCTO AGREGADO AL CARRITO", result.Message)
	assert.Equal(t, code, result.Carts[0].Codigo)
}

func TestGetCartEnrichesItems(t *testing.T) {
	c, f := setup(t)
	defer f.ctrl.Finish()

	f.publisher.EXPECT().Publish(gomock.Any(), "cart", gomock.Any()).Return(nil)
	_, err := f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 101, Cantidad: 1})
	assert.NoError(t, err)

	f.catalogClient.EXPECT().GetProductsByCodes(gomock.Any(), []int{101}, gomock.Any()).
		Return([]catalog.Product{{Codigo: 101, Nombre: "Notebook", Categorias: []string{"electronica"}}}, nil)

	result, err := f.service.getCart(c, "device-abc", "", 0)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Carrito recuperado", result.Message)
	assert.Equal(t, "Notebook", result.Carts[0].Articulos.Contado[0].Nombre)
	assert.Equal(t, "electronica", result.Carts[0].Articulos.Contado[0].Categoria)
}

func TestGetCartDegradesWithoutEnrichment(t *testing.T) {
	c, f := setup(t)
	defer f.ctrl.Finish()

	f.publisher.EXPECT().Publish(gomock.Any(), "cart", gomock.Any()).Return(nil)
	_, err := f.service.addItem(c, "device-abc", "", 0, Item{Codigo: 101, Cantidad: 1})
	assert.NoError(t, err)

	f.catalogClient.EXPECT().GetProductsByCodes(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError).Times(2)

	result, err := f.service.getCart(c, "device-abc", "", 0)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Carrito recuperado (sin información adicional de productos)", result.Message)
}

func TestGetCartNotFound(t *testing.T) {
	c, f := setup(t)
	defer f.ctrl.Finish()

	result, err := f.service.getCart(c, "device-unknown", "", 0)
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Carrito no encontrado", result.Message)
}
