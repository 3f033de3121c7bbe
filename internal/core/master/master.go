// Package master models the reference data the reconciliation joins
// against: provider fichas, purchase-concept account mappings, cost-center
// business units and the bank transfer directory.
package master

import (
	"log/slog"
	"strings"

	"constructoraicc/gopagos/internal/core/rut"
)

// ProviderNotFound marks enrichment fields of invoices whose provider RUT
// has no ficha. Consumers must not mistake it for real master data.
const ProviderNotFound = "Proveedor no encontrado"

// Ficha is a provider master record from the ERP.
type Ficha struct {
	Rut             string `json:"Rut"`
	FechaIngreso    string `json:"FechaIngreso"`
	ConceptoCompras string `json:"ConceptoCompras"`
	Cliente         string `json:"Cliente"`
	Proveedor       string `json:"Proveedor"`
	Honorario       string `json:"Honorario"`
	Empleado        string `json:"Empleado"`
}

// CuentaMapping maps a purchase concept to its ledger accounts.
type CuentaMapping struct {
	Concepto string
	Cuenta   string
	Cuenta2  string
}

// UnidadNegocio maps a Previred cost-center code to an ERP business unit.
type UnidadNegocio struct {
	UnidadNegocio       string
	Estado              string
	CentroCostoPrevired string
}

// BankRecord is one row of the bank transfer directory template.
type BankRecord struct {
	RutBeneficiario    string
	NombreBeneficiario string
	BancoDestino       string
	TipoCuenta         string
	CuentaDestino      string
	Correo             string
}

// IndexFichas keys fichas by normalized RUT, keeping the first record seen
// for each RUT so a duplicated ficha cannot fan out the invoice join.
func IndexFichas(fichas []Ficha, log *slog.Logger) map[string]Ficha {
	idx := make(map[string]Ficha, len(fichas))
	for _, f := range fichas {
		clave := rut.Normalize(f.Rut)
		if _, ok := idx[clave]; ok {
			log.Warn("ficha duplicada, se conserva la primera", "rut", f.Rut)
			continue
		}
		idx[clave] = f
	}
	return idx
}

// IndexCuentas keys account mappings by purchase concept, first one wins.
func IndexCuentas(cuentas []CuentaMapping, log *slog.Logger) map[string]CuentaMapping {
	idx := make(map[string]CuentaMapping, len(cuentas))
	for _, c := range cuentas {
		clave := strings.TrimSpace(c.Concepto)
		if clave == "" {
			continue
		}
		if _, ok := idx[clave]; ok {
			log.Warn("concepto duplicado en cuentas, se conserva el primero", "concepto", c.Concepto)
			continue
		}
		idx[clave] = c
	}
	return idx
}

// IndexUnidades keys business units by Previred cost-center code.
func IndexUnidades(unidades []UnidadNegocio, log *slog.Logger) map[string]UnidadNegocio {
	idx := make(map[string]UnidadNegocio, len(unidades))
	for _, u := range unidades {
		clave := strings.TrimSpace(u.CentroCostoPrevired)
		if clave == "" {
			continue
		}
		if _, ok := idx[clave]; ok {
			log.Warn("centro de costo duplicado, se conserva el primero", "centro", u.CentroCostoPrevired)
			continue
		}
		idx[clave] = u
	}
	return idx
}

// IndexBank keys bank records by normalized beneficiary RUT. Rows without a
// destination account are unusable for transfers and are dropped before
// deduplication.
func IndexBank(registros []BankRecord, log *slog.Logger) map[string]BankRecord {
	idx := make(map[string]BankRecord, len(registros))
	for _, b := range registros {
		if strings.TrimSpace(b.CuentaDestino) == "" {
			continue
		}
		clave := rut.Normalize(b.RutBeneficiario)
		if rut.IsMissing(clave) {
			continue
		}
		if _, ok := idx[clave]; ok {
			log.Warn("rut duplicado en directorio bancario, se conserva el primero", "rut", b.RutBeneficiario)
			continue
		}
		idx[clave] = b
	}
	return idx
}
