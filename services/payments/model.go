package payments

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPendiente   Status = "pendiente"
	StatusProcesando  Status = "procesando"
	StatusCompletado  Status = "completado"
	StatusFallido     Status = "fallido"
	StatusCancelado   Status = "cancelado"
	StatusReembolsado Status = "reembolsado"
)

// statusRank orders the monotonic part of the lifecycle. Reembolsado is the
// one allowed reversal and is handled explicitly.
var statusRank = map[Status]int{
	StatusPendiente:   0,
	StatusProcesando:  1,
	StatusCompletado:  2,
	StatusFallido:     2,
	StatusCancelado:   2,
	StatusReembolsado: 3,
}

func (s Status) isValid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s Status) isTerminal() bool {
	return statusRank[s] >= 2
}

// canTransitionTo enforces forward-only transitions, with the explicit
// exception that a completed payment may be reversed to reembolsado.
func (s Status) canTransitionTo(next Status) bool {
	if !s.isValid() || !next.isValid() {
		return false
	}
	if next == StatusReembolsado {
		return s == StatusCompletado
	}
	if s.isTerminal() {
		return false
	}
	return statusRank[next] > statusRank[s]
}

type ClientInfo struct {
	Equipo    string `json:"equipo"`
	Correo    string `json:"correo"`
	Nombre    string `json:"nombre"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
}

type PaymentRecord struct {
	IDTransaccion string          `json:"idTransaccion"`
	CartCode      int             `json:"codigoCarrito"`
	CartSnapshot  json.RawMessage `json:"carrito,omitempty" datastore:",noindex"`
	Metodo        string          `json:"metodo"`
	Monto         float64         `json:"monto"`
	Moneda        string          `json:"moneda"`
	Estado        Status          `json:"estado"`
	Cliente       ClientInfo      `json:"cliente"`
	Descripcion   string          `json:"descripcion,omitempty"`

	// Vigente is cleared when a newer payment supersedes this one.
	Vigente bool `json:"vigente"`

	RespuestaPagopar json.RawMessage `json:"respuestaPagopar,omitempty" datastore:",noindex"`
	RespuestaBancard json.RawMessage `json:"respuestaBancard,omitempty" datastore:",noindex"`
	MotivoFallo      string          `json:"motivoFallo,omitempty"`

	Reintentos      int        `json:"reintentos"`
	UltimoReintento *time.Time `json:"ultimoReintento,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	Procesado  *time.Time `json:"procesado,omitempty"`
	Expira     *time.Time `json:"expira,omitempty"`
	Finalizado *time.Time `json:"finalizado,omitempty"`
}

// expiryFor returns how long a freshly registered payment stays payable.
func expiryFor(method string) time.Duration {
	switch strings.ToLower(method) {
	case "pagopar":
		return 24 * time.Hour
	case "bancard":
		return 30 * time.Minute
	case "efectivo contra entrega", "tarjeta contra entrega":
		// settled at the door
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (p PaymentRecord) String() string {
	return fmt.Sprintf("%s: cart %d, %s %s %.0f (%s)", p.IDTransaccion, p.CartCode, p.Metodo, p.Moneda, p.Monto, p.Estado)
}
