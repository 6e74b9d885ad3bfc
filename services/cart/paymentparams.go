package cart

import (
	"fmt"
	"strings"
)

// recognized payment types, matched case-insensitively by substring
var allowedPaymentTypes = []string{
	"debito contra entrega",
	"tarjeta contra entrega",
	"pagopar",
	"bancard",
	"efectivo contra entrega",
}

type paymentParams struct {
	Metodo      string
	Monto       float64
	Descripcion string
}

func isAllowedPaymentType(tipo string) bool {
	normalized := strings.ToLower(tipo)
	for _, allowed := range allowedPaymentTypes {
		if strings.Contains(normalized, allowed) {
			return true
		}
	}

	return false
}

func isInstallmentType(tipo string) bool {
	return strings.Contains(strings.ToLower(tipo), "debito")
}

// resolvePaymentParams maps the payment block to the concrete charge. The
// installment path sums the schedule, every other path uses the block's
// stated amount. Unrecognized types fall through to cash on delivery so new
// type strings keep working.
func resolvePaymentParams(pago PaymentBlock) paymentParams {
	normalized := strings.ToLower(pago.Tipo)

	switch {
	case strings.Contains(normalized, "debito"):
		total := 0.0
		for _, cuota := range pago.Cuotas {
			total += cuota.Importe
		}
		return paymentParams{
			Metodo:      "efectivo contra entrega",
			Monto:       total,
			Descripcion: fmt.Sprintf("Débito contra entrega en %d cuotas", len(pago.Cuotas)),
		}
	case strings.Contains(normalized, "tarjeta"):
		return paymentParams{
			Metodo:      "tarjeta contra entrega",
			Monto:       pago.Monto,
			Descripcion: "Tarjeta contra entrega",
		}
	case strings.Contains(normalized, "pagopar"):
		return paymentParams{
			Metodo:      "pagopar",
			Monto:       pago.Monto,
			Descripcion: "Pago online via Pagopar",
		}
	case strings.Contains(normalized, "bancard"):
		return paymentParams{
			Metodo:      "bancard",
			Monto:       pago.Monto,
			Descripcion: "Pago online via Bancard",
		}
	default:
		return paymentParams{
			Metodo:      "efectivo contra entrega",
			Monto:       pago.Monto,
			Descripcion: "Efectivo contra entrega",
		}
	}
}
