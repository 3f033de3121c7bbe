package payment

import (
	"math"
	"time"

	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/payment"
)

// ScheduleConfig carries the payment policy knobs.
type ScheduleConfig struct {
	DueDays          int
	CessionDueDays   int
	CessionThreshold float64
}

// AnchorFriday returns midnight of the Friday of the week of t. A Friday is
// its own anchor.
func AnchorFriday(t time.Time) time.Time {
	dias := (int(time.Friday) - int(t.Weekday()) + 7) % 7
	viernes := t.AddDate(0, 0, dias)
	return time.Date(viernes.Year(), viernes.Month(), viernes.Day(), 0, 0, 0, 0, t.Location())
}

// Schedule resolves due date and eligibility for each candidate against the
// anchor Friday. Ceded invoices at or above the threshold get the extended
// term. Eligibility requires an approved document, positive balance and a
// due date on or before the anchor; the eligible amount is the balance
// rounded to whole pesos.
func Schedule(candidatos []payment.Candidate, ahora time.Time, cfg ScheduleConfig) {
	viernes := AnchorFriday(ahora)
	for i := range candidatos {
		c := &candidatos[i]

		plazo := cfg.DueDays
		if c.Cesion && c.Monto >= cfg.CessionThreshold {
			plazo = cfg.CessionDueDays
		}
		c.FechaPago = c.FechaEmision.AddDate(0, 0, plazo)

		c.APagar = !c.FechaEmision.IsZero() &&
			!c.FechaPago.After(viernes) &&
			c.Saldo > 0 &&
			c.EstadoDoc == invoice.EstadoDocAprobada

		if c.APagar {
			c.MontoPago = int64(math.Round(c.Saldo))
		} else {
			c.MontoPago = 0
		}
	}
}
