package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveAmountsElectronica(t *testing.T) {
	f := Invoice{TipoFactura: TipoFacturaElectronica, MontoTotal: 1190000}
	f.DeriveAmounts()

	assert.InDelta(t, 1000000, f.Neto, 0.01)
	assert.InDelta(t, 190000, f.IVA, 0.01)
	assert.InDelta(t, 1190000, f.Monto, 0.01)
	assert.InDelta(t, 1190000, f.Saldo, 0.01)
}

func TestDeriveAmountsNoElectronica(t *testing.T) {
	f := Invoice{TipoFactura: TipoBoletaHonorarios, MontoTotal: 500000}
	f.DeriveAmounts()

	assert.Equal(t, 500000.0, f.Neto)
	assert.Equal(t, 0.0, f.IVA)
	assert.Equal(t, 500000.0, f.Monto)
	assert.Equal(t, 500000.0, f.Saldo)
}

func TestDeriveAmountsPagada(t *testing.T) {
	f := Invoice{
		TipoFactura: TipoFacturaElectronica,
		MontoTotal:  1190000,
		EstadoPago:  EstadoPagoPagada,
	}
	f.DeriveAmounts()

	assert.InDelta(t, f.Monto, f.Pagado, 0.01)
	assert.InDelta(t, 0, f.Saldo, 0.01)
}

func TestDeriveAmountsNotaCredito(t *testing.T) {
	f := Invoice{
		TipoFactura: TipoFacturaElectronica,
		MontoTotal:  1190000,
		MontoNC:     190000,
	}
	f.DeriveAmounts()

	assert.InDelta(t, 190000, f.Pagado, 0.01)
	assert.InDelta(t, 1000000, f.Saldo, 0.01)
}

func TestDeriveAmountsPagadaPrevalece(t *testing.T) {
	// Marked paid wins over a matched credit note.
	f := Invoice{
		TipoFactura: TipoFacturaElectronica,
		MontoTotal:  1190000,
		EstadoPago:  EstadoPagoPagada,
		MontoNC:     50000,
	}
	f.DeriveAmounts()

	assert.InDelta(t, f.Monto, f.Pagado, 0.01)
}

func TestDeriveAmountsInvariante(t *testing.T) {
	casos := []Invoice{
		{TipoFactura: TipoFacturaElectronica, MontoTotal: 357000},
		{TipoFactura: "Factura Exenta", MontoTotal: 357000},
		{TipoFactura: TipoFacturaElectronica, MontoTotal: 1, MontoNC: 0.5},
	}
	for _, f := range casos {
		f.DeriveAmounts()
		assert.InDelta(t, f.Monto, f.Neto+f.IVA, 0.001)
		assert.InDelta(t, f.Saldo, f.Monto-f.Pagado, 0.001)
	}
}
