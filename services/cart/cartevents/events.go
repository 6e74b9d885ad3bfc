package cartevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/myevents"
)

const (
	TopicName             = "cart"
	cartCreatedName       = TopicName + ".created"
	checkoutCompletedName = TopicName + ".checkout.completed"
)

type CartEventService interface {
	Subscribe(c context.Context) error
	OnCartCreated(c context.Context, topic string, event CartCreated) error
	OnCheckoutCompleted(c context.Context, topic string, event CheckoutCompleted) error
}

func DispatchEvent(c context.Context, reader io.Reader, service CartEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case cartCreatedName:
		{
			event := CartCreated{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCartCreated(c, envelope.Topic, event)
		}
	case checkoutCompletedName:
		{
			event := CheckoutCompleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutCompleted(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unknown event type %s", envelope.EventTypeName))
	}
}

type CartCreated struct {
	CartCode int
}

func (e CartCreated) GetEventTypeName() string {
	return cartCreatedName
}

func (e CartCreated) GetAggregateName() string {
	return fmt.Sprintf("%d", e.CartCode)
}

type CheckoutCompleted struct {
	CartCode      int
	IDTransaccion string
	Metodo        string
	Monto         float64
	Success       bool
}

func (e CheckoutCompleted) GetEventTypeName() string {
	return checkoutCompletedName
}

func (e CheckoutCompleted) GetAggregateName() string {
	return fmt.Sprintf("%d", e.CartCode)
}
