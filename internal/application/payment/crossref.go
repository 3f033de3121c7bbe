package payment

import (
	"strings"

	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/master"
	"constructoraicc/gopagos/internal/core/rut"
)

// EnrichWithFichas joins invoices against the provider master by normalized
// RUT. Invoices whose provider has no ficha get the not-found marker on the
// enrichment fields instead of dropping out of the batch.
func EnrichWithFichas(facturas []invoice.Invoice, fichas map[string]master.Ficha) {
	for i := range facturas {
		f, ok := fichas[rut.Normalize(facturas[i].RutProveedor)]
		if !ok {
			facturas[i].FechaIngreso = master.ProviderNotFound
			facturas[i].ConceptoCompras = master.ProviderNotFound
			continue
		}
		facturas[i].FechaIngreso = f.FechaIngreso
		facturas[i].ConceptoCompras = f.ConceptoCompras
		facturas[i].Honorario = f.Honorario
	}
}

// ClassifyBoletasHonorarios reclassifies documents of providers flagged as
// fee earners when the ficha carries no purchase concept. Must run after
// EnrichWithFichas and before amount derivation so the reclassified
// documents lose their tax treatment.
func ClassifyBoletasHonorarios(facturas []invoice.Invoice) {
	for i := range facturas {
		if strings.TrimSpace(facturas[i].ConceptoCompras) == "" && facturas[i].Honorario == "S" {
			facturas[i].TipoFactura = invoice.TipoBoletaHonorarios
		}
	}
}

// EnrichWithCuentas resolves the ledger accounts from the purchase concept.
func EnrichWithCuentas(facturas []invoice.Invoice, cuentas map[string]master.CuentaMapping) {
	for i := range facturas {
		c, ok := cuentas[strings.TrimSpace(facturas[i].ConceptoCompras)]
		if !ok {
			continue
		}
		facturas[i].Cuenta = c.Cuenta
		facturas[i].Cuenta2 = c.Cuenta2
	}
}

// EnrichWithCentros derives the cost-center code from the first four
// characters of the management center and resolves the business unit.
func EnrichWithCentros(facturas []invoice.Invoice, unidades map[string]master.UnidadNegocio) {
	for i := range facturas {
		centro := facturas[i].CentroGestion
		if r := []rune(centro); len(r) > 4 {
			centro = string(r[:4])
		}
		facturas[i].Centro = centro
		u, ok := unidades[centro]
		if !ok {
			continue
		}
		facturas[i].UnidadNegocio = u.UnidadNegocio
		facturas[i].EstadoUnidad = u.Estado
	}
}
