package payments

import (
	"context"
	"encoding/json"
)

type RegisterPaymentRequest struct {
	CartCode     int                        `json:"codigoCarrito"`
	CartSnapshot json.RawMessage            `json:"carrito,omitempty"`
	Method       string                     `json:"metodo"`
	Amount       float64                    `json:"monto"`
	Currency     string                     `json:"moneda"`
	Client       ClientInfo                 `json:"cliente"`
	Description  string                     `json:"descripcion,omitempty"`
	GatewayBlobs map[string]json.RawMessage `json:"respuestas,omitempty"`
}

type RegisterPaymentData struct {
	IDTransaccion string  `json:"idTransaccion"`
	Estado        Status  `json:"estado"`
	Monto         float64 `json:"monto"`
	Moneda        string  `json:"moneda"`
	Expira        string  `json:"expira,omitempty"`
}

type RegisterPaymentResponse struct {
	Success bool                `json:"success"`
	Data    RegisterPaymentData `json:"data"`
	Message string              `json:"message,omitempty"`
}

// Client is the payments collaborator as seen from the cart service.
//
//go:generate mockgen -source=api.go -package payments -destination client_mock.go Client
type Client interface {
	RegisterPayment(c context.Context, req RegisterPaymentRequest) (RegisterPaymentResponse, error)
	MarkSuperseded(c context.Context, cartCode int) error
}
