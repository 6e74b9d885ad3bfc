package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/mypubsub"
	"github.com/centralshop/storebackend/lib/mystore"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/lib/myuuid"
)

func setup(t *testing.T) (context.Context, *service, mystore.Store[PaymentRecord]) {
	c := context.TODO()
	store, _, _ := mystore.NewInMemoryStore[PaymentRecord](c)
	pubsub, _, _ := mypubsub.New(c)
	s := newService(store, pubsub, mytime.RealNower{}, myuuid.RealUUIDer{}, mylog.New("payments"))

	return c, s, store
}

func TestRegisterPayment(t *testing.T) {
	c, s, store := setup(t)

	resp, err := s.registerPayment(c, RegisterPaymentRequest{
		CartCode: 42,
		Method:   "pagopar",
		Amount:   250000,
		Client:   ClientInfo{Equipo: "device-abc", Correo: "ana@example.com"},
	})
	assert.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Data.IDTransaccion, "TXN_"))
	assert.Equal(t, StatusPendiente, resp.Data.Estado)
	assert.Equal(t, "PYG", resp.Data.Moneda)

	record, found, err := store.Get(c, resp.Data.IDTransaccion)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, record.CartCode)
	assert.True(t, record.Vigente)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *record.Expira, time.Minute)
}

func TestRegisterPaymentRejectsBadInput(t *testing.T) {
	c, s, _ := setup(t)

	testCases := []struct {
		name string
		req  RegisterPaymentRequest
	}{
		{name: "missing cart code", req: RegisterPaymentRequest{Method: "bancard", Amount: 1000}},
		{name: "missing method", req: RegisterPaymentRequest{CartCode: 1, Amount: 1000}},
		{name: "zero amount", req: RegisterPaymentRequest{CartCode: 1, Method: "bancard"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := s.registerPayment(c, tc.req)
			assert.NoError(t, err)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	c, s, _ := setup(t)

	resp, _ := s.registerPayment(c, RegisterPaymentRequest{CartCode: 7, Method: "bancard", Amount: 1000})
	id := resp.Data.IDTransaccion

	record, err := s.updatePaymentStatus(c, id, StatusProcesando, "")
	assert.NoError(t, err)
	assert.Equal(t, 1, record.Reintentos)
	assert.NotNil(t, record.Procesado)

	record, err = s.updatePaymentStatus(c, id, StatusCompletado, "")
	assert.NoError(t, err)
	assert.NotNil(t, record.Finalizado)

	// the one allowed reversal
	_, err = s.updatePaymentStatus(c, id, StatusReembolsado, "")
	assert.NoError(t, err)

	// no way back from a terminal state
	_, err = s.updatePaymentStatus(c, id, StatusPendiente, "")
	assert.Error(t, err)
}

func TestRejectionReason(t *testing.T) {
	c, s, _ := setup(t)

	resp, _ := s.registerPayment(c, RegisterPaymentRequest{CartCode: 7, Method: "bancard", Amount: 1000})
	id := resp.Data.IDTransaccion

	// not rejected yet
	_, err := s.getRejectionReason(c, id)
	assert.Error(t, err)

	_, err = s.updatePaymentStatus(c, id, StatusFallido, "tarjeta vencida")
	assert.NoError(t, err)

	reason, err := s.getRejectionReason(c, id)
	assert.NoError(t, err)
	assert.Equal(t, "tarjeta vencida", reason)

	_, err = s.getRejectionReason(c, "TXN_does_not_exist")
	assert.Error(t, err)
}

func TestMarkSuperseded(t *testing.T) {
	c, s, store := setup(t)

	pending, _ := s.registerPayment(c, RegisterPaymentRequest{CartCode: 9, Method: "pagopar", Amount: 1000})
	completed, _ := s.registerPayment(c, RegisterPaymentRequest{CartCode: 9, Method: "bancard", Amount: 2000})
	_, err := s.updatePaymentStatus(c, completed.Data.IDTransaccion, StatusProcesando, "")
	assert.NoError(t, err)
	_, err = s.updatePaymentStatus(c, completed.Data.IDTransaccion, StatusCompletado, "")
	assert.NoError(t, err)

	err = s.markSuperseded(c, 9)
	assert.NoError(t, err)

	record, _, _ := store.Get(c, pending.Data.IDTransaccion)
	assert.False(t, record.Vigente)
	assert.Equal(t, StatusCancelado, record.Estado)

	// the completed payment is untouched
	record, _, _ = store.Get(c, completed.Data.IDTransaccion)
	assert.True(t, record.Vigente)
	assert.Equal(t, StatusCompletado, record.Estado)
}

func TestListPaymentsForCart(t *testing.T) {
	c, s, _ := setup(t)

	_, _ = s.registerPayment(c, RegisterPaymentRequest{CartCode: 11, Method: "pagopar", Amount: 1000})
	_, _ = s.registerPayment(c, RegisterPaymentRequest{CartCode: 11, Method: "bancard", Amount: 2000})
	_, _ = s.registerPayment(c, RegisterPaymentRequest{CartCode: 12, Method: "bancard", Amount: 3000})

	records, err := s.listPaymentsForCart(c, 11)
	assert.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestExpiryPerMethod(t *testing.T) {
	assert.Equal(t, 24*time.Hour, expiryFor("Pagopar"))
	assert.Equal(t, 30*time.Minute, expiryFor("bancard"))
	assert.Equal(t, 7*24*time.Hour, expiryFor("efectivo contra entrega"))
	assert.Equal(t, 7*24*time.Hour, expiryFor("tarjeta contra entrega"))

	// anything unrecognized gets the short leash, not the on-delivery window
	assert.Equal(t, 24*time.Hour, expiryFor("transferencia"))
}
