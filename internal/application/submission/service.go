// Package submission posts approved invoices to the accounting ERP as
// balanced vouchers, consulting the submission ledger so no invoice is
// ever posted twice.
package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/ledger"
)

// Accounting posts vouchers to the ERP.
type Accounting interface {
	AddComprobante(ctx context.Context, v ledger.Voucher) error
}

// DetailSource fetches the per-invoice amount breakdown when the invoice
// arrived without one.
type DetailSource interface {
	ObtenerDetalle(ctx context.Context, idDocumento int64) (invoice.Detail, error)
}

// Config parametrizes the submitter.
type Config struct {
	// Usuario is the ERP user every voucher is posted as.
	Usuario string
	// UnidadCentral is the business unit mirroring every credit line.
	UnidadCentral string
}

// DefaultConfig returns the production submitter parameters.
func DefaultConfig() Config {
	return Config{
		Usuario:       "jgutierrez@constructoraicc.cl",
		UnidadCentral: "Oficina Central",
	}
}

// Result is the per-invoice outcome of a batch submission.
type Result struct {
	IDDocumento  int64          `json:"idDocumento"`
	FolioUnico   string         `json:"folioUnico"`
	RutProveedor string         `json:"rutProveedor"`
	Outcome      ledger.Outcome `json:"outcome,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Service submits invoices to accounting.
type Service struct {
	contabilidad Accounting
	detalles     DetailSource
	registro     ledger.Repository
	cfg          Config
	log          *slog.Logger

	ahora func() time.Time
}

func NewService(contabilidad Accounting, detalles DetailSource, registro ledger.Repository, cfg Config, log *slog.Logger) *Service {
	if cfg.Usuario == "" {
		cfg.Usuario = DefaultConfig().Usuario
	}
	if cfg.UnidadCentral == "" {
		cfg.UnidadCentral = DefaultConfig().UnidadCentral
	}
	return &Service{
		contabilidad: contabilidad,
		detalles:     detalles,
		registro:     registro,
		cfg:          cfg,
		log:          log,
		ahora:        time.Now,
	}
}

// Submit posts one invoice. Duplicate, cancelled and unmapped invoices
// return their terminal outcome without contacting the ERP. The ledger
// entry is written only after the ERP confirms the voucher; a failure to
// write it is logged and the outcome is still reported as submitted, so a
// crash in between is an accepted at-least-once risk.
func (s *Service) Submit(ctx context.Context, f invoice.Invoice) (ledger.Outcome, error) {
	existe, err := s.registro.Exists(ctx, f.FolioUnico, f.RutProveedor)
	if err != nil {
		return "", fmt.Errorf("consultando registro de subidas: %w", err)
	}
	if existe {
		s.log.Info("factura ya subida", "folioUnico", f.FolioUnico, "rutProveedor", f.RutProveedor)
		return ledger.OutcomeAlreadySubmitted, nil
	}

	if strings.EqualFold(strings.TrimSpace(f.EstadoDoc), invoice.EstadoDocCancelada) {
		s.log.Info("factura cancelada, no se sube", "idDocumento", f.IDDocumento)
		return ledger.OutcomeCancelled, nil
	}

	if strings.TrimSpace(f.Cuenta) == "" {
		s.log.Info("factura sin cuenta contable", "idDocumento", f.IDDocumento, "conceptoCompras", f.ConceptoCompras)
		return ledger.OutcomeMissingAccount, nil
	}

	if f.MontoNeto == nil && f.MontoNoAfecto == nil {
		detalle, err := s.detalles.ObtenerDetalle(ctx, f.IDDocumento)
		if err != nil {
			return "", fmt.Errorf("obteniendo detalle de factura %d: %w", f.IDDocumento, err)
		}
		f.MontoNeto = detalle.MontoNeto
		f.MontoNoAfecto = detalle.MontoNoAfecto
	}
	if f.MontoNeto == nil && f.MontoNoAfecto == nil {
		return "", fmt.Errorf("factura %d sin desglose de montos", f.IDDocumento)
	}

	comprobante := s.buildVoucher(f)
	if err := s.contabilidad.AddComprobante(ctx, comprobante); err != nil {
		return "", fmt.Errorf("enviando comprobante de factura %d: %w", f.IDDocumento, err)
	}

	snapshot, err := json.Marshal(f)
	if err != nil {
		s.log.Error("serializando snapshot de factura", "idDocumento", f.IDDocumento, "error", err)
	}
	entrada := ledger.Entry{
		FolioUnico:   f.FolioUnico,
		RutProveedor: f.RutProveedor,
		IDDocumento:  f.IDDocumento,
		SubidaAt:     s.ahora(),
		Snapshot:     snapshot,
	}
	if _, err := s.registro.InsertIfAbsent(ctx, entrada); err != nil {
		s.log.Error("comprobante enviado pero no registrado", "idDocumento", f.IDDocumento, "error", err)
	}
	return ledger.OutcomeSubmitted, nil
}

// SubmitAll posts candidates one at a time; each submission reads and
// mutates the shared ledger, so the loop stays sequential. A failure on
// one invoice never aborts the rest.
func (s *Service) SubmitAll(ctx context.Context, facturas []invoice.Invoice) []Result {
	resultados := make([]Result, 0, len(facturas))
	for _, f := range facturas {
		r := Result{IDDocumento: f.IDDocumento, FolioUnico: f.FolioUnico, RutProveedor: f.RutProveedor}
		outcome, err := s.Submit(ctx, f)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Outcome = outcome
		}
		resultados = append(resultados, r)
	}
	return resultados
}

// buildVoucher assembles the balanced TRASPASO voucher. Each non-zero
// amount component produces a debit against the invoice's business unit
// mirrored by a credit against the central office unit.
func (s *Service) buildVoucher(f invoice.Invoice) ledger.Voucher {
	comentario := fmt.Sprintf("%s #%s, ficha %s %s", f.TipoFactura, f.FolioUnico, f.RutProveedor, f.NomProveedor)

	var detalle []ledger.VoucherLine
	agregar := func(monto int64, sufijo string) {
		detalle = append(detalle,
			ledger.VoucherLine{
				Cuenta:         f.Cuenta,
				Debe:           monto,
				Comentario:     comentario + sufijo,
				RutFicha:       f.RutProveedor,
				Documento:      f.NomProveedor,
				FolioDocumento: f.FolioUnico,
				UnidadNegocio:  f.UnidadNegocio,
			},
			ledger.VoucherLine{
				Cuenta:         f.Cuenta,
				Haber:          monto,
				Comentario:     comentario,
				RutFicha:       f.RutProveedor,
				Documento:      f.NomProveedor,
				FolioDocumento: f.FolioUnico,
				UnidadNegocio:  s.cfg.UnidadCentral,
			},
		)
	}
	if f.MontoNeto != nil {
		if neto := int64(*f.MontoNeto); neto > 0 {
			agregar(neto, " afecto")
		}
	}
	if f.MontoNoAfecto != nil {
		if noAfecto := int64(*f.MontoNoAfecto); noAfecto > 0 {
			agregar(noAfecto, " no afecto")
		}
	}

	return ledger.Voucher{
		Usuario:         s.cfg.Usuario,
		TipoComprobante: "TRASPASO",
		Fecha:           f.FechaEmision.Format("2006-01-02"),
		Comentario:      comentario,
		Detalle:         detalle,
	}
}
