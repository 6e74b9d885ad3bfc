package payments

import (
	"context"
	"fmt"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/myhttp"
	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/services/cart/cartevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.pubsub.Subscribe(c, cartevents.TopicName, myhttp.GuessHostnameWithScheme()+"/payments/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", cartevents.TopicName, err)
	}

	return nil
}

func (s *service) OnCartCreated(c context.Context, topic string, event cartevents.CartCreated) error {
	return nil
}

func (s *service) OnCheckoutCompleted(c context.Context, topic string, event cartevents.CheckoutCompleted) error {
	s.logger.Log(c, event.IDTransaccion, mylog.SeverityInfo, "Webhook: checkout completed for cart %d -> payment %s", event.CartCode, event.IDTransaccion)

	if !event.Success {
		return nil
	}

	now := s.nower.Now()

	return s.paymentStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		record, found, err := s.paymentStore.Get(c, event.IDTransaccion)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching payment %s: %s", event.IDTransaccion, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("payment %s not found", event.IDTransaccion))
		}

		if record.Estado != StatusPendiente {
			return nil
		}

		record.Estado = StatusProcesando
		record.Procesado = &now
		record.Reintentos++
		record.UltimoReintento = &now

		return s.paymentStore.Put(c, event.IDTransaccion, record)
	})
}
