package payment

import (
	"log/slog"
	"strings"

	"constructoraicc/gopagos/internal/core/cession"
	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/payment"
	"constructoraicc/gopagos/internal/core/rut"
)

func claveDocumento(rutProveedor, folio string) string {
	return rut.Normalize(rutProveedor) + "|" + strings.TrimSpace(folio)
}

// JoinCreditNotes matches credit notes to invoices on (associated folio,
// provider RUT). Only the first credit note per key is applied so the join
// never changes the invoice cardinality.
func JoinCreditNotes(facturas []invoice.Invoice, notas []invoice.CreditNote, log *slog.Logger) {
	idx := make(map[string]invoice.CreditNote, len(notas))
	for _, nc := range notas {
		clave := claveDocumento(nc.RutProveedor, nc.FactAsociada)
		if _, ok := idx[clave]; ok {
			log.Warn("nota de crédito duplicada para la misma factura, se conserva la primera",
				"factura", nc.FactAsociada, "rut", nc.RutProveedor)
			continue
		}
		idx[clave] = nc
	}

	for i := range facturas {
		nc, ok := idx[claveDocumento(facturas[i].RutProveedor, facturas[i].FolioUnico)]
		if !ok {
			continue
		}
		facturas[i].NumeroNC = nc.NumDoc
		facturas[i].MontoNC = nc.MontoTotal
	}
}

// CrossCessions marks each candidate whose (provider RUT, folio) appears in
// the extracted cession records and returns the cessions that matched no
// invoice, so unmatched certificates stay visible for manual review.
// Records without a document reference are always reported as uncrossed.
func CrossCessions(candidatos []payment.Candidate, cesiones []cession.Record) []cession.Record {
	porDocumento := make(map[string]cession.Record, len(cesiones))
	for _, c := range cesiones {
		if !c.HasDocument() {
			continue
		}
		clave := claveDocumento(*c.RutDocumento, *c.Folio)
		if _, ok := porDocumento[clave]; !ok {
			porDocumento[clave] = c
		}
	}

	cruzadas := make(map[string]bool, len(porDocumento))
	for i := range candidatos {
		clave := claveDocumento(candidatos[i].RutProveedor, candidatos[i].FolioUnico)
		c, ok := porDocumento[clave]
		if !ok {
			continue
		}
		candidatos[i].Cesion = true
		candidatos[i].Cesionario = c.Cesionario
		candidatos[i].RutCesionario = c.RutCesionario
		cruzadas[clave] = true
	}

	var noCruzadas []cession.Record
	for _, c := range cesiones {
		if !c.HasDocument() {
			noCruzadas = append(noCruzadas, c)
			continue
		}
		if !cruzadas[claveDocumento(*c.RutDocumento, *c.Folio)] {
			noCruzadas = append(noCruzadas, c)
		}
	}
	return noCruzadas
}
