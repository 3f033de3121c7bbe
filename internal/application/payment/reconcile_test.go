package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"constructoraicc/gopagos/internal/core/cession"
	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/payment"
	"constructoraicc/gopagos/internal/testutil"
)

func ptr(s string) *string { return &s }

func TestJoinCreditNotes(t *testing.T) {
	facturas := []invoice.Invoice{
		{FolioUnico: "100", RutProveedor: "76111222-3"},
		{FolioUnico: "200", RutProveedor: "76111222-3"},
	}
	notas := []invoice.CreditNote{
		{NumDoc: "NC-1", FactAsociada: "100", RutProveedor: "76.111.222-3", MontoTotal: 50000},
	}

	JoinCreditNotes(facturas, notas, testutil.Logger())

	assert.Equal(t, "NC-1", facturas[0].NumeroNC)
	assert.Equal(t, 50000.0, facturas[0].MontoNC)
	assert.Empty(t, facturas[1].NumeroNC)
}

func TestJoinCreditNotesDuplicadaConservaPrimera(t *testing.T) {
	facturas := []invoice.Invoice{{FolioUnico: "100", RutProveedor: "76111222-3"}}
	notas := []invoice.CreditNote{
		{NumDoc: "NC-1", FactAsociada: "100", RutProveedor: "76111222-3", MontoTotal: 50000},
		{NumDoc: "NC-2", FactAsociada: "100", RutProveedor: "76111222-3", MontoTotal: 70000},
	}

	JoinCreditNotes(facturas, notas, testutil.Logger())

	assert.Equal(t, "NC-1", facturas[0].NumeroNC)
	assert.Equal(t, 50000.0, facturas[0].MontoNC)
}

func TestCrossCessions(t *testing.T) {
	candidatos := []payment.Candidate{
		{Invoice: invoice.Invoice{FolioUnico: "4581", RutProveedor: "76.111.222-3"}},
		{Invoice: invoice.Invoice{FolioUnico: "9999", RutProveedor: "76111222-3"}},
	}
	cesiones := []cession.Record{
		{Cesionario: "FACTORING ANDES", RutCesionario: "96555888-1", RutDocumento: ptr("76111222-3"), Folio: ptr("4581")},
		{Cesionario: "BANCO FACTOR", RutCesionario: "96000111-2", RutDocumento: ptr("76111222-3"), Folio: ptr("7777")},
	}

	noCruzadas := CrossCessions(candidatos, cesiones)

	assert.True(t, candidatos[0].Cesion)
	assert.Equal(t, "FACTORING ANDES", candidatos[0].Cesionario)
	assert.Equal(t, "96555888-1", candidatos[0].RutCesionario)
	assert.False(t, candidatos[1].Cesion)

	require.Len(t, noCruzadas, 1)
	assert.Equal(t, "7777", *noCruzadas[0].Folio)
}

func TestCrossCessionsSinDocumentoSiempreNoCruzada(t *testing.T) {
	candidatos := []payment.Candidate{
		{Invoice: invoice.Invoice{FolioUnico: "4581", RutProveedor: "76111222-3"}},
	}
	cesiones := []cession.Record{{Cesionario: "FONDO XYZ"}}

	noCruzadas := CrossCessions(candidatos, cesiones)

	assert.False(t, candidatos[0].Cesion)
	require.Len(t, noCruzadas, 1)
	assert.Equal(t, "FONDO XYZ", noCruzadas[0].Cesionario)
}
