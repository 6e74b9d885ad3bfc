package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/services/cart/cartevents"
	"github.com/centralshop/storebackend/services/payments"
	"github.com/centralshop/storebackend/services/resilience"
)

// procesoEnCurso marks a cart whose checkout sits between payment
// registration and finalization.
const procesoEnCurso = "pago_en_proceso"

// finishCart runs the checkout saga over one cart: validate, locate,
// resolve payment parameters, register the payment, finalize, then hand the
// finalized cart to the back office off the critical path. A success:false
// outcome is a normal result for the caller, not an error.
func (s *service) finishCart(c context.Context, ownerToken string, account string, cartCode int, pago PaymentBlock) (CheckoutResult, error) {
	if failure := validateFinishCart(ownerToken, cartCode, pago); failure != nil {
		return *failure, nil
	}

	located, found, err := s.cartStore.findForOwner(c, ownerToken, account, cartCode)
	if err != nil {
		return CheckoutResult{}, myerrors.NewInternalError(fmt.Errorf("error locating cart %d: %s", cartCode, err))
	}
	if !found {
		s.logger.Log(c, fmt.Sprintf("%d", cartCode), mylog.SeverityError, "Checkout of unknown cart %d for owner %s", cartCode, ownerToken)
		return CheckoutResult{}, myerrors.NewNotFoundError(fmt.Errorf("cart %d not found", cartCode))
	}
	if !located.IsActive() {
		return CheckoutResult{}, myerrors.NewPreconditionFailedError(fmt.Errorf("cart %d is already finalized", cartCode))
	}

	unlock := s.locks.lock(located.Codigo)
	defer unlock()

	params := resolvePaymentParams(pago)

	// mark the cart mid-checkout before money is involved: if we crash
	// between registration and finalization, the next addItem finds the
	// marker and supersedes the orphaned pending payment
	err = s.setCheckoutMarker(c, located.Codigo, procesoEnCurso)
	if err != nil {
		return CheckoutResult{}, err
	}

	currency := pago.Moneda
	if currency == "" {
		currency = "PYG"
	}

	snapshot, err := json.Marshal(located)
	if err != nil {
		return CheckoutResult{}, myerrors.NewInternalError(fmt.Errorf("error snapshotting cart %d: %s", located.Codigo, err))
	}

	// a payment has no degraded substitute, so no fallback here
	resp, err := resilience.Do(c, s.invoker, "register_payment", func(c context.Context) (payments.RegisterPaymentResponse, error) {
		return s.paymentsClient.RegisterPayment(c, payments.RegisterPaymentRequest{
			CartCode:     located.Codigo,
			CartSnapshot: snapshot,
			Method:       params.Metodo,
			Amount:       params.Monto,
			Currency:     currency,
			Client: payments.ClientInfo{
				Equipo:    located.Cliente.Equipo,
				Correo:    located.Cliente.Correo,
				Nombre:    located.Cliente.RazonSocial,
				Telefono:  located.Cliente.Telefono,
				Direccion: located.Envio.Direccion,
			},
			Description:  params.Descripcion,
			GatewayBlobs: pago.Respuestas,
		})
	}, s.invokeOptions, nil)
	if err != nil {
		return CheckoutResult{}, err
	}

	if !resp.Success {
		s.logger.Log(c, fmt.Sprintf("%d", located.Codigo), mylog.SeverityWarn, "Payment registration of cart %d rejected: %s", located.Codigo, resp.Message)

		// a rejected registration leaves no pending payment behind
		err = s.setCheckoutMarker(c, located.Codigo, "")
		if err != nil {
			s.logger.Log(c, fmt.Sprintf("%d", located.Codigo), mylog.SeverityWarn, "Could not clear checkout marker of cart %d: %s", located.Codigo, err)
		}

		return CheckoutResult{
			Success: false,
			Message: fmt.Sprintf("Pago rechazado: %s", resp.Message),
		}, nil
	}

	finalized, err := s.finalizeCart(c, located.Codigo, pago, params, resp.Data)
	if err != nil {
		return CheckoutResult{}, err
	}

	// already final from the customer's point of view, so replication
	// failure only gets logged
	err = s.replicator.Replicate(c, finalized, resp.Data)
	if err != nil {
		s.logger.Log(c, fmt.Sprintf("%d", finalized.Codigo), mylog.SeverityWarn, "Back-office replication of cart %d failed: %s", finalized.Codigo, err)
	}

	return CheckoutResult{
		Success: true,
		Message: "COMPRA FINALIZADA CON ÉXITO",
		Payment: &resp.Data,
	}, nil
}

func (s *service) setCheckoutMarker(c context.Context, cartCode int, marker string) error {
	return s.cartStore.runInTransaction(c, func(c context.Context) error {
		crt, found, err := s.cartStore.getByCode(c, cartCode)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error re-reading cart %d: %s", cartCode, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("cart %d not found", cartCode))
		}
		if !crt.IsActive() {
			return myerrors.NewPreconditionFailedError(fmt.Errorf("cart %d is no longer active", cartCode))
		}

		crt.Proceso = marker

		return s.cartStore.put(c, crt)
	})
}

// finalizeCart persists the checkout outcome. The estado precondition keeps
// a concurrently finalized cart from being finalized twice.
func (s *service) finalizeCart(c context.Context, cartCode int, pago PaymentBlock, params paymentParams, payment payments.RegisterPaymentData) (Cart, error) {
	now := s.nower.Now()

	var finalized Cart
	err := s.cartStore.runInTransaction(c, func(c context.Context) error {
		crt, found, err := s.cartStore.getByCode(c, cartCode)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error re-reading cart %d: %s", cartCode, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("cart %d not found", cartCode))
		}
		if !crt.IsActive() {
			return myerrors.NewPreconditionFailedError(fmt.Errorf("cart %d is no longer active", cartCode))
		}

		crt.Pago = pago
		crt.Pago.IDTransaccion = payment.IDTransaccion
		crt.Proceso = ""
		crt.Estado = estadoFinalizado
		crt.FinalizedAt = &now

		err = s.cartStore.put(c, crt)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing cart %d: %s", cartCode, err))
		}

		err = s.publisher.Publish(c, cartevents.TopicName, cartevents.CheckoutCompleted{
			CartCode:      crt.Codigo,
			IDTransaccion: payment.IDTransaccion,
			Metodo:        params.Metodo,
			Monto:         params.Monto,
			Success:       true,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing checkout completion: %s", err))
		}

		finalized = crt
		return nil
	})
	if err != nil {
		return Cart{}, err
	}

	s.logger.Log(c, fmt.Sprintf("%d", cartCode), mylog.SeverityInfo, "Cart %d finalized with payment %s", cartCode, payment.IDTransaccion)

	return finalized, nil
}

// validateFinishCart returns a structured unsuccessful result for local
// validation failures, which are terminal and never retried.
func validateFinishCart(ownerToken string, cartCode int, pago PaymentBlock) *CheckoutResult {
	if cartCode <= 0 {
		return &CheckoutResult{
			Success: false,
			Message: "Código de carrito no válido - debe ser mayor a 0",
		}
	}
	if ownerToken == "" {
		return &CheckoutResult{
			Success: false,
			Message: "Token de cliente no válido",
		}
	}
	if pago.Tipo == "" {
		return &CheckoutResult{
			Success: false,
			Message: "El tipo de pago es requerido",
		}
	}
	if !isAllowedPaymentType(pago.Tipo) {
		return &CheckoutResult{
			Success: false,
			Message: "Tipo de pago no válido",
		}
	}

	if isInstallmentType(pago.Tipo) {
		if len(pago.Cuotas) == 0 {
			return &CheckoutResult{
				Success: false,
				Message: "El array de cuotas es requerido para Débito contra Entrega",
			}
		}
		for i, cuota := range pago.Cuotas {
			if cuota.Numero <= 0 || cuota.Importe <= 0 {
				return &CheckoutResult{
					Success: false,
					Message: fmt.Sprintf("La cuota %d debe tener número e importe mayor a 0", i+1),
				}
			}
		}
	}

	return nil
}
