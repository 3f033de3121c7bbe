package payment

import (
	"fmt"
	"log/slog"
	"time"

	"constructoraicc/gopagos/internal/core/master"
	"constructoraicc/gopagos/internal/core/payment"
	"constructoraicc/gopagos/internal/core/rut"
)

// BuildBatch turns eligible candidates into bank transfer lines. The
// beneficiary is the assignee when the invoice was ceded, the provider
// otherwise; transfers above the cap are split into full-cap parts plus a
// remainder, each part numbered in its memo. Candidates without a bank
// directory entry emit a line with empty account fields so the gap shows up
// in the sheet instead of silently shrinking the payroll.
func BuildBatch(candidatos []payment.Candidate, banco map[string]master.BankRecord, ahora time.Time, tope int64, log *slog.Logger) []payment.BatchLine {
	mensaje := "PAGO PROVEEDORES " + AnchorFriday(ahora).Format("02 01 2006")

	var lineas []payment.BatchLine
	for _, c := range candidatos {
		if !c.APagar || c.MontoPago <= 0 {
			continue
		}

		clave := rut.Normalize(c.RutProveedor)
		if c.Cesion {
			clave = rut.Normalize(c.RutCesionario)
		}
		registro, ok := banco[clave]
		if !ok {
			log.Warn("beneficiario sin cuenta bancaria", "rut", clave, "factura", c.FolioUnico)
		}

		base := payment.BatchLine{
			Rut:                clave,
			RazonSocial:        c.NomProveedor,
			NombreBeneficiario: registro.NombreBeneficiario,
			BancoDestino:       registro.BancoDestino,
			TipoCuenta:         registro.TipoCuenta,
			CuentaDestino:      registro.CuentaDestino,
			Mensaje:            mensaje,
			Correo:             registro.Correo,
		}

		if c.MontoPago <= tope {
			linea := base
			linea.Monto = c.MontoPago
			linea.Glosa = "PAGO FACTURA " + c.FolioUnico
			lineas = append(lineas, linea)
			continue
		}

		partes := c.MontoPago / tope
		resto := c.MontoPago % tope
		for i := int64(1); i <= partes; i++ {
			linea := base
			linea.Monto = tope
			linea.Glosa = fmt.Sprintf("PAGO FACTURA %s PARTE %d", c.FolioUnico, i)
			lineas = append(lineas, linea)
		}
		if resto > 0 {
			linea := base
			linea.Monto = resto
			linea.Glosa = fmt.Sprintf("PAGO FACTURA %s PARTE %d", c.FolioUnico, partes+1)
			lineas = append(lineas, linea)
		}
	}
	return lineas
}
