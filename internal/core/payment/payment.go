// Package payment models the weekly payment pipeline output: reconciled
// candidates and transfer batch lines.
package payment

import (
	"time"

	"constructoraicc/gopagos/internal/core/invoice"
)

// Candidate is an invoice reconciled against the cession certificates with
// its payment schedule resolved.
type Candidate struct {
	invoice.Invoice

	Cesion        bool      `json:"cesion"`
	Cesionario    string    `json:"cesionario,omitempty"`
	RutCesionario string    `json:"rutCesionario,omitempty"`
	FechaPago     time.Time `json:"fechaPago"`
	APagar        bool      `json:"aPagar"`
	MontoPago     int64     `json:"montoPago"`
}

// BatchLine is one row of the bank transfer batch. Amounts are integer
// pesos; the bank template does not accept decimals.
type BatchLine struct {
	Rut                string `json:"rut"`
	RazonSocial        string `json:"razonSocial"`
	NombreBeneficiario string `json:"nombreBeneficiario"`
	BancoDestino       string `json:"bancoDestino"`
	TipoCuenta         string `json:"tipoCuenta"`
	CuentaDestino      string `json:"cuentaDestino"`
	Monto              int64  `json:"monto"`
	Glosa              string `json:"glosa"`
	Mensaje            string `json:"mensaje"`
	Correo             string `json:"correo,omitempty"`
}
