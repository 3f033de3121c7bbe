package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/payment"
)

var cfgPrueba = ScheduleConfig{
	DueDays:          30,
	CessionDueDays:   60,
	CessionThreshold: 10_000_000,
}

func fecha(anio int, mes time.Month, dia int) time.Time {
	return time.Date(anio, mes, dia, 0, 0, 0, 0, time.UTC)
}

func TestAnchorFriday(t *testing.T) {
	casos := []struct {
		nombre string
		hoy    time.Time
		quiere time.Time
	}{
		{"lunes", fecha(2025, time.August, 25), fecha(2025, time.August, 29)},
		{"viernes es su propia ancla", fecha(2025, time.August, 29), fecha(2025, time.August, 29)},
		{"sábado salta al viernes siguiente", fecha(2025, time.August, 30), fecha(2025, time.September, 5)},
		{"domingo salta al viernes siguiente", fecha(2025, time.August, 31), fecha(2025, time.September, 5)},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			assert.Equal(t, c.quiere, AnchorFriday(c.hoy))
		})
	}
}

func TestAnchorFridayTruncaHora(t *testing.T) {
	hoy := time.Date(2025, time.August, 29, 17, 45, 12, 0, time.UTC)
	assert.Equal(t, fecha(2025, time.August, 29), AnchorFriday(hoy))
}

func TestSchedulePlazoNormal(t *testing.T) {
	candidatos := []payment.Candidate{{Invoice: invoice.Invoice{
		FechaEmision: fecha(2025, time.July, 1),
		EstadoDoc:    invoice.EstadoDocAprobada,
		Saldo:        500000,
	}}}
	Schedule(candidatos, fecha(2025, time.August, 25), cfgPrueba)

	c := candidatos[0]
	assert.Equal(t, fecha(2025, time.July, 31), c.FechaPago)
	assert.True(t, c.APagar)
	assert.Equal(t, int64(500000), c.MontoPago)
}

func TestSchedulePlazoCesion(t *testing.T) {
	base := invoice.Invoice{
		FechaEmision: fecha(2025, time.July, 1),
		EstadoDoc:    invoice.EstadoDocAprobada,
		Saldo:        12_000_000,
		Monto:        12_000_000,
	}

	// Without the cession the invoice is due this week.
	sinCesion := []payment.Candidate{{Invoice: base}}
	Schedule(sinCesion, fecha(2025, time.August, 25), cfgPrueba)
	assert.Equal(t, fecha(2025, time.July, 31), sinCesion[0].FechaPago)
	assert.True(t, sinCesion[0].APagar)

	// The extended term pushes it past the anchor Friday.
	conCesion := []payment.Candidate{{Invoice: base, Cesion: true}}
	Schedule(conCesion, fecha(2025, time.August, 25), cfgPrueba)
	assert.Equal(t, fecha(2025, time.August, 30), conCesion[0].FechaPago)
	assert.False(t, conCesion[0].APagar)
	assert.Zero(t, conCesion[0].MontoPago)

	// Below the threshold the cession does not extend the term.
	chica := base
	chica.Monto = 9_000_000
	chica.Saldo = 9_000_000
	conCesionChica := []payment.Candidate{{Invoice: chica, Cesion: true}}
	Schedule(conCesionChica, fecha(2025, time.August, 25), cfgPrueba)
	assert.Equal(t, fecha(2025, time.July, 31), conCesionChica[0].FechaPago)
	assert.True(t, conCesionChica[0].APagar)
}

func TestScheduleNoElegible(t *testing.T) {
	hoy := fecha(2025, time.August, 25)
	casos := []struct {
		nombre string
		f      invoice.Invoice
	}{
		{"sin saldo", invoice.Invoice{FechaEmision: fecha(2025, time.July, 1), EstadoDoc: invoice.EstadoDocAprobada, Saldo: 0}},
		{"no aprobada", invoice.Invoice{FechaEmision: fecha(2025, time.July, 1), EstadoDoc: "Pendiente", Saldo: 100}},
		{"vence después del viernes", invoice.Invoice{FechaEmision: hoy, EstadoDoc: invoice.EstadoDocAprobada, Saldo: 100}},
		{"sin fecha de emisión", invoice.Invoice{EstadoDoc: invoice.EstadoDocAprobada, Saldo: 100}},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			candidatos := []payment.Candidate{{Invoice: c.f}}
			Schedule(candidatos, hoy, cfgPrueba)
			assert.False(t, candidatos[0].APagar)
			assert.Zero(t, candidatos[0].MontoPago)
		})
	}
}

func TestScheduleRedondeaSaldo(t *testing.T) {
	candidatos := []payment.Candidate{{Invoice: invoice.Invoice{
		FechaEmision: fecha(2025, time.July, 1),
		EstadoDoc:    invoice.EstadoDocAprobada,
		Saldo:        849999.57,
	}}}
	Schedule(candidatos, fecha(2025, time.August, 25), cfgPrueba)
	assert.Equal(t, int64(850000), candidatos[0].MontoPago)
}

func TestScheduleVencimientoIgualAlViernes(t *testing.T) {
	// Due exactly on the anchor Friday is payable.
	candidatos := []payment.Candidate{{Invoice: invoice.Invoice{
		FechaEmision: fecha(2025, time.July, 30),
		EstadoDoc:    invoice.EstadoDocAprobada,
		Saldo:        100,
	}}}
	Schedule(candidatos, fecha(2025, time.August, 25), cfgPrueba)
	assert.Equal(t, fecha(2025, time.August, 29), candidatos[0].FechaPago)
	assert.True(t, candidatos[0].APagar)
}
