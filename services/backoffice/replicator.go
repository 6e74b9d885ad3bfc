package backoffice

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/myqueue"
	"github.com/centralshop/storebackend/lib/mystore"
	"github.com/centralshop/storebackend/lib/myuuid"
	"github.com/centralshop/storebackend/services/cart"
	"github.com/centralshop/storebackend/services/payments"
)

// RequestRecord is one derived back-office request: credit items split per
// installment count, cash items combined into a single record.
type RequestRecord struct {
	UID            string       `json:"uid"`
	CartCode       int          `json:"codigoCarrito"`
	IDTransaccion  string       `json:"idTransaccion"`
	Metodo         string       `json:"metodo"`
	Moneda         string       `json:"moneda"`
	Cliente        cart.Cliente `json:"cliente"`
	CantidadCuotas int          `json:"cantidadcuotas,omitempty"`
	Articulos      []cart.Item  `json:"articulos"`
	Monto          float64      `json:"monto"`
	Delivered      bool         `json:"delivered"`
}

type Replicator struct {
	queue       myqueue.TaskQueuer
	recordStore mystore.Store[RequestRecord]
	uuider      myuuid.UUIDer
	logger      mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewReplicator(queue myqueue.TaskQueuer, recordStore mystore.Store[RequestRecord], uuider myuuid.UUIDer) *Replicator {
	return &Replicator{
		queue:       queue,
		recordStore: recordStore,
		uuider:      uuider,
		logger:      mylog.New("backoffice"),
	}
}

// Replicate derives the request records of a finalized cart and enqueues
// one delivery task per record.
func (r *Replicator) Replicate(c context.Context, crt cart.Cart, payment payments.RegisterPaymentData) error {
	records := r.deriveRecords(crt, payment)

	for _, record := range records {
		err := r.recordStore.Put(c, record.UID, record)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing backoffice record %s: %s", record.UID, err))
		}

		payload, err := json.Marshal(record)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error marshalling backoffice record %s: %s", record.UID, err))
		}

		err = r.queue.Enqueue(c, myqueue.Task{
			UID:            record.UID,
			WebhookURLPath: fmt.Sprintf("/backoffice/task/%s", record.UID),
			Payload:        payload,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error enqueuing backoffice record %s: %s", record.UID, err))
		}

		r.logger.Log(c, record.UID, mylog.SeverityInfo, "Enqueued backoffice record %s for cart %d (%d cuotas)", record.UID, record.CartCode, record.CantidadCuotas)
	}

	return nil
}

func (r *Replicator) deriveRecords(crt cart.Cart, payment payments.RegisterPaymentData) []RequestRecord {
	newRecord := func(cuotas int, items []cart.Item) RequestRecord {
		monto := 0.0
		for _, item := range items {
			monto += item.Precio * float64(item.Cantidad)
		}
		return RequestRecord{
			UID:            r.uuider.Create(),
			CartCode:       crt.Codigo,
			IDTransaccion:  payment.IDTransaccion,
			Metodo:         crt.Pago.Tipo,
			Moneda:         payment.Moneda,
			Cliente:        crt.Cliente,
			CantidadCuotas: cuotas,
			Articulos:      items,
			Monto:          monto,
		}
	}

	records := []RequestRecord{}

	byCuotas := map[int][]cart.Item{}
	for _, item := range crt.Articulos.Credito {
		byCuotas[item.CantidadCuotas] = append(byCuotas[item.CantidadCuotas], item)
	}
	cuotaCounts := make([]int, 0, len(byCuotas))
	for cuotas := range byCuotas {
		cuotaCounts = append(cuotaCounts, cuotas)
	}
	sort.Ints(cuotaCounts)
	for _, cuotas := range cuotaCounts {
		records = append(records, newRecord(cuotas, byCuotas[cuotas]))
	}

	if len(crt.Articulos.Contado) > 0 {
		records = append(records, newRecord(0, crt.Articulos.Contado))
	}

	return records
}
