package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/master"
	"constructoraicc/gopagos/internal/core/payment"
	"constructoraicc/gopagos/internal/testutil"
)

const topePrueba = 7_000_000

func bancoPrueba() map[string]master.BankRecord {
	return master.IndexBank([]master.BankRecord{
		{RutBeneficiario: "76.111.222-3", NombreBeneficiario: "PROVEEDOR UNO", BancoDestino: "SANTANDER", CuentaDestino: "12345"},
		{RutBeneficiario: "96.555.888-1", NombreBeneficiario: "FACTORING ANDES", BancoDestino: "CHILE", CuentaDestino: "67890"},
	}, testutil.Logger())
}

func candidatoPagable(folio string, monto int64) payment.Candidate {
	return payment.Candidate{
		Invoice: invoice.Invoice{
			FolioUnico:   folio,
			RutProveedor: "76111222-3",
			NomProveedor: "PROVEEDOR UNO LTDA",
		},
		APagar:    true,
		MontoPago: monto,
	}
}

func TestBuildBatchSinDividir(t *testing.T) {
	lineas := BuildBatch([]payment.Candidate{candidatoPagable("4581", 1_500_000)},
		bancoPrueba(), fecha(2025, time.August, 25), topePrueba, testutil.Logger())

	require.Len(t, lineas, 1)
	assert.Equal(t, int64(1_500_000), lineas[0].Monto)
	assert.Equal(t, "PAGO FACTURA 4581", lineas[0].Glosa)
	assert.Equal(t, "PAGO PROVEEDORES 29 08 2025", lineas[0].Mensaje)
	assert.Equal(t, "12345", lineas[0].CuentaDestino)
}

func TestBuildBatchDivideSobreTope(t *testing.T) {
	lineas := BuildBatch([]payment.Candidate{candidatoPagable("4581", 15_500_000)},
		bancoPrueba(), fecha(2025, time.August, 25), topePrueba, testutil.Logger())

	require.Len(t, lineas, 3)
	assert.Equal(t, int64(7_000_000), lineas[0].Monto)
	assert.Equal(t, int64(7_000_000), lineas[1].Monto)
	assert.Equal(t, int64(1_500_000), lineas[2].Monto)
	assert.Equal(t, "PAGO FACTURA 4581 PARTE 1", lineas[0].Glosa)
	assert.Equal(t, "PAGO FACTURA 4581 PARTE 2", lineas[1].Glosa)
	assert.Equal(t, "PAGO FACTURA 4581 PARTE 3", lineas[2].Glosa)

	var suma int64
	for _, l := range lineas {
		suma += l.Monto
	}
	assert.Equal(t, int64(15_500_000), suma)
}

func TestBuildBatchMultiploExactoSinResto(t *testing.T) {
	lineas := BuildBatch([]payment.Candidate{candidatoPagable("99", 14_000_000)},
		bancoPrueba(), fecha(2025, time.August, 25), topePrueba, testutil.Logger())

	require.Len(t, lineas, 2)
	for _, l := range lineas {
		assert.Equal(t, int64(7_000_000), l.Monto)
	}
}

func TestBuildBatchUsaCuentaDelCesionario(t *testing.T) {
	c := candidatoPagable("4581", 2_000_000)
	c.Cesion = true
	c.RutCesionario = "96555888-1"

	lineas := BuildBatch([]payment.Candidate{c}, bancoPrueba(),
		fecha(2025, time.August, 25), topePrueba, testutil.Logger())

	require.Len(t, lineas, 1)
	assert.Equal(t, "965558881", lineas[0].Rut)
	assert.Equal(t, "FACTORING ANDES", lineas[0].NombreBeneficiario)
	assert.Equal(t, "67890", lineas[0].CuentaDestino)
}

func TestBuildBatchSinCuentaBancaria(t *testing.T) {
	c := candidatoPagable("4581", 2_000_000)
	c.RutProveedor = "11111111-1"

	lineas := BuildBatch([]payment.Candidate{c}, bancoPrueba(),
		fecha(2025, time.August, 25), topePrueba, testutil.Logger())

	// The line survives with empty account fields.
	require.Len(t, lineas, 1)
	assert.Empty(t, lineas[0].CuentaDestino)
	assert.Equal(t, int64(2_000_000), lineas[0].Monto)
}

func TestBuildBatchOmiteNoElegibles(t *testing.T) {
	noElegible := candidatoPagable("1", 1000)
	noElegible.APagar = false
	sinMonto := candidatoPagable("2", 0)

	lineas := BuildBatch([]payment.Candidate{noElegible, sinMonto}, bancoPrueba(),
		fecha(2025, time.August, 25), topePrueba, testutil.Logger())
	assert.Empty(t, lineas)
}
