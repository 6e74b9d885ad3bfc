package cart

import (
	"encoding/json"
	"time"

	"github.com/centralshop/storebackend/services/payments"
)

const (
	estadoActivo     = 1
	estadoFinalizado = 0
)

type Cliente struct {
	Equipo        string `json:"equipo"`
	RazonSocial   string `json:"razonsocial,omitempty"`
	Correo        string `json:"correo,omitempty"`
	Telefono      string `json:"telefono,omitempty"`
	Documento     string `json:"documento,omitempty"`
	TipoDocumento string `json:"tipodocumento,omitempty"`
}

type Ubicacion struct {
	Latitud  float64 `json:"latitud"`
	Longitud float64 `json:"longitud"`
}

type Envio struct {
	Direccion   string    `json:"direccion,omitempty"`
	NumeroCasa  string    `json:"numerocasa,omitempty"`
	Ciudad      string    `json:"ciudad,omitempty"`
	Barrio      string    `json:"barrio,omitempty"`
	Observacion string    `json:"observacion,omitempty"`
	Ubicacion   Ubicacion `json:"ubicacion"`
}

type Cuota struct {
	Numero  int     `json:"numero"`
	Importe float64 `json:"importe"`
}

// PaymentBlock is the free-form payment intent attached to a cart while it
// moves through checkout.
type PaymentBlock struct {
	Tipo           string  `json:"tipo,omitempty"`
	Monto          float64 `json:"monto,omitempty"`
	Moneda         string  `json:"moneda,omitempty"`
	Condicion      string  `json:"condicion,omitempty"`
	Periodicidad   string  `json:"periodicidad,omitempty"`
	EntregaInicial float64 `json:"entregainicial,omitempty"`
	CantidadCuotas int     `json:"cantidadcuotas,omitempty"`
	Cuotas         []Cuota `json:"cuotas,omitempty"`

	IDTransaccion string                     `json:"idTransaccion,omitempty"`
	Respuestas    map[string]json.RawMessage `json:"respuestas,omitempty" datastore:",noindex"`
}

type Item struct {
	Codigo   int     `json:"codigo"`
	Nombre   string  `json:"nombre,omitempty"`
	Cantidad int     `json:"cantidad"`
	Precio   float64 `json:"precio,omitempty"`

	// CantidadCuotas > 0 puts the item in the credit bucket.
	CantidadCuotas int `json:"cantidadcuotas,omitempty"`

	// filled by product enrichment on reads, never persisted as truth
	Marca     string `json:"marca,omitempty"`
	Categoria string `json:"categoria,omitempty"`
}

type Articulos struct {
	Contado []Item `json:"contado"`
	Credito []Item `json:"credito"`
}

type Cart struct {
	Codigo int `json:"codigo"`

	// Proceso marks an in-flight checkout; a non-empty value on a cart
	// that is being touched again means the previous attempt went stale.
	Proceso string `json:"proceso,omitempty"`

	Cliente   Cliente      `json:"cliente"`
	Envio     Envio        `json:"envio"`
	Pago      PaymentBlock `json:"pago"`
	Articulos Articulos    `json:"articulos"`
	Estado    int          `json:"estado"`

	CreatedAt   time.Time  `json:"createdAt"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
}

func (crt Cart) IsActive() bool {
	return crt.Estado == estadoActivo
}

type CartMutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Carts   []Cart `json:"data"`
}

type CheckoutResult struct {
	Success bool                          `json:"success"`
	Message string                        `json:"message"`
	Payment *payments.RegisterPaymentData `json:"payment,omitempty"`
}
