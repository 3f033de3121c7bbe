package invoice

import "time"

// Document type and status values as delivered by the source API.
const (
	TipoFacturaElectronica = "Factura Electrónica"
	TipoBoletaHonorarios   = "Boleta Honorarios"

	EstadoDocAprobada  = "Aprobada"
	EstadoDocCancelada = "Cancelada"
	EstadoPagoPagada   = "Pagada"
)

// IVARate is the Chilean value-added tax rate applied to electronic invoices.
const IVARate = 0.19

// Invoice represents a supplier invoice as fetched from the accounting API,
// progressively enriched by the cross-reference stages.
type Invoice struct {
	IDDocumento      int64     `json:"idDocumento"`
	FolioUnico       string    `json:"folioUnico"`
	RutProveedor     string    `json:"rutProveedor"`
	NomProveedor     string    `json:"nomProveedor"`
	FechaEmision     time.Time `json:"fechaEmision"`
	TipoFactura      string    `json:"tipoFactura"`
	MontoTotal       float64   `json:"montoTotal"`
	Moneda           string    `json:"moneda,omitempty"`
	EstadoDoc        string    `json:"estadoDoc"`
	EstadoAsociacion string    `json:"estadoAsociacion"`
	EstadoPago       string    `json:"estadoPago"`
	CentroGestion    string    `json:"centroGestion"`

	// Provider master enrichment. The "provider not found" sentinel is set
	// on both fields when the RUT has no ficha, so consumers can tell a
	// failed lookup apart from genuinely empty master data.
	FechaIngreso    string `json:"fechaIngreso,omitempty"`
	ConceptoCompras string `json:"conceptoCompras,omitempty"`
	Honorario       string `json:"honorario,omitempty"`

	// Account and cost-center enrichment.
	Cuenta        string `json:"cuenta,omitempty"`
	Cuenta2       string `json:"cuenta2,omitempty"`
	Centro        string `json:"centro,omitempty"`
	UnidadNegocio string `json:"unidadNegocio,omitempty"`
	EstadoUnidad  string `json:"estadoUnidad,omitempty"`

	// Per-invoice detail lookup. Nil when the lookup failed or has not run;
	// a failed lookup never aborts the batch.
	MontoNeto     *float64 `json:"montoNeto,omitempty"`
	MontoNoAfecto *float64 `json:"montoNoAfectoOExento,omitempty"`

	// Credit-note join result (zero value when no credit note matched).
	NumeroNC string  `json:"numeroNC,omitempty"`
	MontoNC  float64 `json:"montoNC,omitempty"`

	// Derived amounts, recomputed by DeriveAmounts.
	Neto   float64 `json:"neto"`
	IVA    float64 `json:"iva"`
	Monto  float64 `json:"monto"`
	Pagado float64 `json:"pagado"`
	Saldo  float64 `json:"saldo"`

	// Subida is resolved against the submission ledger on every read.
	Subida bool `json:"subida"`
}

// CreditNote represents a credit note associated to an invoice via
// (associated folio, provider tax id).
type CreditNote struct {
	NumDoc           string    `json:"numDoc"`
	FactAsociada     string    `json:"factAsociada"`
	NombreProveedor  string    `json:"nombreProveedor"`
	RutProveedor     string    `json:"rutProveedor"`
	CentroGestion    string    `json:"centroGestion"`
	FechaEmision     time.Time `json:"fechaEmision"`
	MontoTotal       float64   `json:"montoTotal"`
	EstadoDoc        string    `json:"estadoDoc"`
	EstadoAsociacion string    `json:"estadoAsociacion"`
}

// Detail is the per-invoice amount breakdown returned by the detail lookup.
type Detail struct {
	MontoNeto     *float64 `json:"montoNeto"`
	MontoNoAfecto *float64 `json:"montoNoAfectoOExento"`
}

// SearchWindow bounds a fetch by reception/emission date.
type SearchWindow struct {
	Desde time.Time
	Hasta time.Time
}

// DeriveAmounts fills Neto, IVA, Monto, Pagado and Saldo from the source
// fields. Electronic invoices carry IVA: the total is gross, so the net is
// total·100/119 and the tax 19% of that net. Every other document type is
// tax-free with net equal to the total.
//
// Paid amount: the full amount when the invoice is marked paid, otherwise
// the matched credit-note amount when positive, otherwise zero. The source
// never sums multiple credit notes per invoice; that behavior is kept.
func (f *Invoice) DeriveAmounts() {
	if f.TipoFactura == TipoFacturaElectronica {
		f.Neto = f.MontoTotal * 100 / 119
		f.IVA = f.Neto * IVARate
	} else {
		f.Neto = f.MontoTotal
		f.IVA = 0
	}
	f.Monto = f.Neto + f.IVA

	switch {
	case f.EstadoPago == EstadoPagoPagada:
		f.Pagado = f.Monto
	case f.MontoNC > 0:
		f.Pagado = f.MontoNC
	default:
		f.Pagado = 0
	}

	f.Saldo = f.Monto - f.Pagado
}
