package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePaymentParams(t *testing.T) {
	testCases := []struct {
		name   string
		pago   PaymentBlock
		metodo string
		monto  float64
	}{
		{
			name:   "debito sums the installment schedule",
			pago:   PaymentBlock{Tipo: "Debito contra Entrega", Monto: 99, Cuotas: []Cuota{{Numero: 1, Importe: 1000}, {Numero: 2, Importe: 1000}}},
			metodo: "efectivo contra entrega",
			monto:  2000,
		},
		{
			name:   "tarjeta uses the stated amount",
			pago:   PaymentBlock{Tipo: "Tarjeta contra entrega", Monto: 5000},
			metodo: "tarjeta contra entrega",
			monto:  5000,
		},
		{
			name:   "pagopar",
			pago:   PaymentBlock{Tipo: "Pagopar", Monto: 3000},
			metodo: "pagopar",
			monto:  3000,
		},
		{
			name:   "bancard",
			pago:   PaymentBlock{Tipo: "BANCARD", Monto: 4000},
			metodo: "bancard",
			monto:  4000,
		},
		{
			name:   "efectivo",
			pago:   PaymentBlock{Tipo: "Efectivo contra entrega", Monto: 1500},
			metodo: "efectivo contra entrega",
			monto:  1500,
		},
		{
			name:   "unknown type falls through to cash on delivery",
			pago:   PaymentBlock{Tipo: "Criptomoneda", Monto: 800},
			metodo: "efectivo contra entrega",
			monto:  800,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := resolvePaymentParams(tc.pago)
			assert.Equal(t, tc.metodo, params.Metodo)
			assert.Equal(t, tc.monto, params.Monto)
		})
	}
}

func TestAllowedPaymentTypesMatchBySubstring(t *testing.T) {
	assert.True(t, isAllowedPaymentType("Debito contra Entrega"))
	assert.True(t, isAllowedPaymentType("pago con BANCARD online"))
	assert.False(t, isAllowedPaymentType("Cheque"))
	assert.False(t, isAllowedPaymentType(""))
}
