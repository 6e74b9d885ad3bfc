package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/mypubsub"
	"github.com/centralshop/storebackend/lib/mystore"
	"github.com/centralshop/storebackend/lib/mytime"
	"github.com/centralshop/storebackend/lib/myuuid"
)

type service struct {
	paymentStore mystore.Store[PaymentRecord]
	pubsub       mypubsub.PubSub
	nower        mytime.Nower
	uuider       myuuid.UUIDer
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(store mystore.Store[PaymentRecord], pubsub mypubsub.PubSub, nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		paymentStore: store,
		pubsub:       pubsub,
		nower:        nower,
		uuider:       uuider,
		logger:       logger,
	}
}

func (s *service) registerPayment(c context.Context, req RegisterPaymentRequest) (RegisterPaymentResponse, error) {
	if req.CartCode <= 0 {
		return RegisterPaymentResponse{
			Success: false,
			Message: "codigoCarrito is required",
		}, nil
	}
	if req.Method == "" {
		return RegisterPaymentResponse{
			Success: false,
			Message: "metodo is required",
		}, nil
	}
	if req.Amount <= 0 {
		return RegisterPaymentResponse{
			Success: false,
			Message: fmt.Sprintf("invalid amount %.2f", req.Amount),
		}, nil
	}

	currency := req.Currency
	if currency == "" {
		currency = "PYG"
	}

	now := s.nower.Now()
	expira := now.Add(expiryFor(req.Method))

	record := PaymentRecord{
		IDTransaccion: s.newTransactionID(),
		CartCode:      req.CartCode,
		CartSnapshot:  req.CartSnapshot,
		Metodo:        req.Method,
		Monto:         req.Amount,
		Moneda:        currency,
		Estado:        StatusPendiente,
		Cliente:       req.Client,
		Descripcion:   req.Description,
		Vigente:       true,
		CreatedAt:     now,
		Expira:        &expira,
	}
	record.RespuestaPagopar = req.GatewayBlobs["pagopar"]
	record.RespuestaBancard = req.GatewayBlobs["bancard"]

	err := s.paymentStore.Put(c, record.IDTransaccion, record)
	if err != nil {
		return RegisterPaymentResponse{}, myerrors.NewInternalError(fmt.Errorf("error storing payment: %s", err))
	}

	s.logger.Log(c, record.IDTransaccion, mylog.SeverityInfo, "Registered payment %s", record)

	return RegisterPaymentResponse{
		Success: true,
		Data: RegisterPaymentData{
			IDTransaccion: record.IDTransaccion,
			Estado:        record.Estado,
			Monto:         record.Monto,
			Moneda:        record.Moneda,
			Expira:        expira.Format("2006-01-02 15:04:05"),
		},
	}, nil
}

// newTransactionID is the external join key, generated once per record.
func (s *service) newTransactionID() string {
	suffix := strings.ReplaceAll(s.uuider.Create(), "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}

	return fmt.Sprintf("TXN_%d_%s", s.nower.Now().UnixMilli(), suffix)
}

func (s *service) listPaymentsForCart(c context.Context, cartCode int) ([]PaymentRecord, error) {
	records, err := s.paymentStore.Query(c, []mystore.Filter{
		{Field: "CartCode", Compare: "=", Value: cartCode},
	}, "-CreatedAt")
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error querying payments of cart %d: %s", cartCode, err))
	}

	return records, nil
}

func (s *service) getRefunds(c context.Context) ([]PaymentRecord, error) {
	records, err := s.paymentStore.Query(c, []mystore.Filter{
		{Field: "Estado", Compare: "=", Value: string(StatusReembolsado)},
	}, "-CreatedAt")
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error querying refunds: %s", err))
	}

	return records, nil
}

func (s *service) getRejectionReason(c context.Context, idTransaccion string) (string, error) {
	record, found, err := s.paymentStore.Get(c, idTransaccion)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error fetching payment %s: %s", idTransaccion, err))
	}
	if !found {
		return "", myerrors.NewNotFoundError(fmt.Errorf("payment %s not found", idTransaccion))
	}
	if record.Estado != StatusFallido && record.Estado != StatusCancelado {
		return "", myerrors.NewInvalidInputError(fmt.Errorf("payment %s was not rejected (estado %s)", idTransaccion, record.Estado))
	}
	if record.MotivoFallo == "" {
		return "sin motivo registrado", nil
	}

	return record.MotivoFallo, nil
}

func (s *service) updatePaymentStatus(c context.Context, idTransaccion string, newStatus Status, motivo string) (PaymentRecord, error) {
	now := s.nower.Now()

	var record PaymentRecord
	err := s.paymentStore.RunInTransaction(c, func(c context.Context) error {
		var found bool
		var err error
		record, found, err = s.paymentStore.Get(c, idTransaccion)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching payment %s: %s", idTransaccion, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("payment %s not found", idTransaccion))
		}

		if !record.Estado.canTransitionTo(newStatus) {
			return myerrors.NewInvalidInputError(fmt.Errorf("payment %s cannot go from %s to %s", idTransaccion, record.Estado, newStatus))
		}

		record.Estado = newStatus
		switch newStatus {
		case StatusProcesando:
			record.Procesado = &now
			record.Reintentos++
			record.UltimoReintento = &now
		case StatusCompletado:
			record.Finalizado = &now
		case StatusFallido, StatusCancelado:
			record.MotivoFallo = motivo
		}

		return s.paymentStore.Put(c, idTransaccion, record)
	})
	if err != nil {
		return PaymentRecord{}, err
	}

	s.logger.Log(c, idTransaccion, mylog.SeverityInfo, "Payment %s is now %s", idTransaccion, newStatus)

	return record, nil
}

// markSuperseded deactivates the pending payments of a cart that was left
// mid-checkout and is being touched again.
func (s *service) markSuperseded(c context.Context, cartCode int) error {
	return s.paymentStore.RunInTransaction(c, func(c context.Context) error {
		records, err := s.paymentStore.Query(c, []mystore.Filter{
			{Field: "CartCode", Compare: "=", Value: cartCode},
			{Field: "Estado", Compare: "=", Value: string(StatusPendiente)},
		}, "")
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error querying pending payments of cart %d: %s", cartCode, err))
		}

		for _, record := range records {
			if !record.Vigente {
				continue
			}
			record.Vigente = false
			record.Estado = StatusCancelado
			record.MotivoFallo = "superseded by a newer checkout attempt"

			err = s.paymentStore.Put(c, record.IDTransaccion, record)
			if err != nil {
				return myerrors.NewInternalError(fmt.Errorf("error superseding payment %s: %s", record.IDTransaccion, err))
			}

			s.logger.Log(c, record.IDTransaccion, mylog.SeverityInfo, "Superseded pending payment %s of cart %d", record.IDTransaccion, cartCode)
		}

		return nil
	})
}
