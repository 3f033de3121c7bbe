package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"constructoraicc/gopagos/internal/core/cession"
	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/ledger"
	"constructoraicc/gopagos/internal/core/master"
	"constructoraicc/gopagos/internal/core/payment"
)

// ErrSinFlujo is returned by the read endpoints that depend on a previous
// pipeline run when none has completed yet.
var ErrSinFlujo = errors.New("no hay un flujo de pagos ejecutado")

// InvoiceSource fetches invoices and credit notes from the purchasing API.
type InvoiceSource interface {
	BuscarFacturas(ctx context.Context, desde, hasta time.Time) ([]invoice.Invoice, error)
	BuscarNotasCredito(ctx context.Context, desde, hasta time.Time) ([]invoice.CreditNote, error)
}

// DetailSource fetches the per-invoice amount breakdown.
type DetailSource interface {
	ObtenerDetalle(ctx context.Context, idDocumento int64) (invoice.Detail, error)
}

// FichaSource lists provider master records from the ERP.
type FichaSource interface {
	ListFichas(ctx context.Context) ([]master.Ficha, error)
}

// TableSource loads the local reference workbooks.
type TableSource interface {
	CargarCuentas() ([]master.CuentaMapping, error)
	CargarUnidades() ([]master.UnidadNegocio, error)
	CargarBanco() ([]master.BankRecord, error)
}

// SnapshotStore persists the reconciled invoices of each run.
type SnapshotStore interface {
	Guardar(ctx context.Context, facturas []invoice.Invoice) error
}

// Config carries the pipeline policy.
type Config struct {
	MesesAtras        int
	TopeTransferencia int64
	Schedule          ScheduleConfig
}

// FlujoResult is the outcome of one reconciliation run.
type FlujoResult struct {
	ID                 uuid.UUID           `json:"id"`
	GeneradoAt         time.Time           `json:"generadoAt"`
	Candidatos         []payment.Candidate `json:"candidatos"`
	CesionesNoCruzadas []cession.Record    `json:"cesionesNoCruzadas"`
}

// Service orchestrates the weekly payment pipeline: monthly invoice fetch,
// credit-note and master joins, cession crossing, scheduling and the bank
// transfer batch.
type Service struct {
	facturas  InvoiceSource
	detalles  DetailSource
	fichas    FichaSource
	tablas    TableSource
	registro  ledger.Repository
	snapshots SnapshotStore
	cfg       Config
	log       *slog.Logger
	ahora     func() time.Time

	mu     sync.RWMutex
	ultimo *FlujoResult
}

func NewService(facturas InvoiceSource, detalles DetailSource, fichas FichaSource, tablas TableSource, registro ledger.Repository, snapshots SnapshotStore, cfg Config, log *slog.Logger) *Service {
	return &Service{
		facturas:  facturas,
		detalles:  detalles,
		fichas:    fichas,
		tablas:    tablas,
		registro:  registro,
		snapshots: snapshots,
		cfg:       cfg,
		log:       log,
		ahora:     time.Now,
	}
}

// Flujo runs the full pipeline against the certificate bulletin text and
// remembers the result for the read endpoints. mesesAtras overrides the
// configured window depth when positive.
func (s *Service) Flujo(ctx context.Context, certificadoTexto string, mesesAtras int) (*FlujoResult, error) {
	candidatos, err := s.prepararCandidatos(ctx, mesesAtras)
	if err != nil {
		return nil, err
	}

	cesiones := cession.Extract(certificadoTexto)
	noCruzadas := CrossCessions(candidatos, cesiones)
	Schedule(candidatos, s.ahora(), s.cfg.Schedule)

	if s.snapshots != nil {
		facturas := make([]invoice.Invoice, len(candidatos))
		for i, c := range candidatos {
			facturas[i] = c.Invoice
		}
		if err := s.snapshots.Guardar(ctx, facturas); err != nil {
			s.log.Error("no se pudo persistir el snapshot de facturas", "error", err)
		}
	}

	resultado := &FlujoResult{
		ID:                 uuid.New(),
		GeneradoAt:         s.ahora(),
		Candidatos:         candidatos,
		CesionesNoCruzadas: noCruzadas,
	}

	s.mu.Lock()
	s.ultimo = resultado
	s.mu.Unlock()

	s.log.Info("flujo de pagos completado",
		"flujo", resultado.ID,
		"facturas", len(candidatos),
		"cesiones", len(cesiones),
		"cesiones_no_cruzadas", len(noCruzadas))
	return resultado, nil
}

// Candidatos runs the pipeline without certificates and returns every
// invoice with its schedule resolved against the current anchor Friday.
func (s *Service) Candidatos(ctx context.Context) ([]payment.Candidate, error) {
	candidatos, err := s.prepararCandidatos(ctx, 0)
	if err != nil {
		return nil, err
	}
	Schedule(candidatos, s.ahora(), s.cfg.Schedule)
	return candidatos, nil
}

// CesionesNoCruzadas returns the unmatched cessions of the last run.
func (s *Service) CesionesNoCruzadas() ([]cession.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ultimo == nil {
		return nil, ErrSinFlujo
	}
	return s.ultimo.CesionesNoCruzadas, nil
}

// Planilla builds the bank transfer batch from the last run.
func (s *Service) Planilla(ctx context.Context) ([]payment.BatchLine, error) {
	s.mu.RLock()
	ultimo := s.ultimo
	s.mu.RUnlock()
	if ultimo == nil {
		return nil, ErrSinFlujo
	}

	registros, err := s.tablas.CargarBanco()
	if err != nil {
		return nil, fmt.Errorf("cargando directorio bancario: %w", err)
	}
	banco := master.IndexBank(registros, s.log)

	return BuildBatch(ultimo.Candidatos, banco, s.ahora(), s.cfg.TopeTransferencia, s.log), nil
}

// UltimoFlujo exposes the remembered run.
func (s *Service) UltimoFlujo() (*FlujoResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ultimo, s.ultimo != nil
}

func (s *Service) prepararCandidatos(ctx context.Context, mesesAtras int) ([]payment.Candidate, error) {
	if mesesAtras <= 0 {
		mesesAtras = s.cfg.MesesAtras
	}
	facturas, notas, err := s.buscarVentanas(ctx, mesesAtras)
	if err != nil {
		return nil, err
	}

	fichasList, err := s.fichas.ListFichas(ctx)
	if err != nil {
		return nil, fmt.Errorf("listando fichas de proveedores: %w", err)
	}
	cuentasList, err := s.tablas.CargarCuentas()
	if err != nil {
		return nil, fmt.Errorf("cargando cuentas: %w", err)
	}
	unidadesList, err := s.tablas.CargarUnidades()
	if err != nil {
		return nil, fmt.Errorf("cargando unidades de negocio: %w", err)
	}

	JoinCreditNotes(facturas, notas, s.log)
	EnrichWithFichas(facturas, master.IndexFichas(fichasList, s.log))
	ClassifyBoletasHonorarios(facturas)
	s.completarDetalles(ctx, facturas)
	for i := range facturas {
		facturas[i].DeriveAmounts()
	}
	EnrichWithCuentas(facturas, master.IndexCuentas(cuentasList, s.log))
	EnrichWithCentros(facturas, master.IndexUnidades(unidadesList, s.log))

	s.marcarSubidas(ctx, facturas)

	candidatos := make([]payment.Candidate, len(facturas))
	for i, f := range facturas {
		candidatos[i] = payment.Candidate{Invoice: f}
	}
	return candidatos, nil
}

// buscarVentanas fetches invoices and credit notes month by month and
// deduplicates documents that appear in more than one window.
func (s *Service) buscarVentanas(ctx context.Context, mesesAtras int) ([]invoice.Invoice, []invoice.CreditNote, error) {
	var facturas []invoice.Invoice
	var notas []invoice.CreditNote
	vistos := make(map[int64]bool)

	for _, v := range MonthlyWindows(s.ahora(), mesesAtras) {
		fs, err := s.facturas.BuscarFacturas(ctx, v.Desde, v.Hasta)
		if err != nil {
			return nil, nil, fmt.Errorf("buscando facturas %s: %w", v.Desde.Format("2006-01"), err)
		}
		for _, f := range fs {
			if vistos[f.IDDocumento] {
				continue
			}
			vistos[f.IDDocumento] = true
			facturas = append(facturas, f)
		}

		ncs, err := s.facturas.BuscarNotasCredito(ctx, v.Desde, v.Hasta)
		if err != nil {
			return nil, nil, fmt.Errorf("buscando notas de crédito %s: %w", v.Desde.Format("2006-01"), err)
		}
		notas = append(notas, ncs...)
	}
	return facturas, notas, nil
}

// completarDetalles fans out one amount-breakdown lookup per invoice. The
// source bounds how many requests run at once. A failed lookup leaves that
// invoice with null amounts instead of aborting the run.
func (s *Service) completarDetalles(ctx context.Context, facturas []invoice.Invoice) {
	if s.detalles == nil {
		return
	}
	var wg sync.WaitGroup
	for i := range facturas {
		wg.Add(1)
		go func(f *invoice.Invoice) {
			defer wg.Done()
			detalle, err := s.detalles.ObtenerDetalle(ctx, f.IDDocumento)
			if err != nil {
				s.log.Warn("no se pudo obtener el detalle de la factura",
					"idDocumento", f.IDDocumento, "error", err)
				f.MontoNeto = nil
				f.MontoNoAfecto = nil
				return
			}
			f.MontoNeto = detalle.MontoNeto
			f.MontoNoAfecto = detalle.MontoNoAfecto
		}(&facturas[i])
	}
	wg.Wait()
}

func (s *Service) marcarSubidas(ctx context.Context, facturas []invoice.Invoice) {
	if s.registro == nil {
		return
	}
	entradas, err := s.registro.List(ctx)
	if err != nil {
		s.log.Error("no se pudo consultar el registro de subidas", "error", err)
		return
	}
	subidas := make(map[string]bool, len(entradas))
	for _, e := range entradas {
		subidas[claveDocumento(e.RutProveedor, e.FolioUnico)] = true
	}
	for i := range facturas {
		facturas[i].Subida = subidas[claveDocumento(facturas[i].RutProveedor, facturas[i].FolioUnico)]
	}
}

// MonthlyWindows covers each calendar month from monthsBack months before t
// through t, the current month clipped to t's day.
func MonthlyWindows(t time.Time, monthsBack int) []invoice.SearchWindow {
	hoy := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	inicio := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, -monthsBack, 0)

	var ventanas []invoice.SearchWindow
	for i := 0; i <= monthsBack; i++ {
		primerDia := inicio.AddDate(0, i, 0)
		ultimoDia := primerDia.AddDate(0, 1, -1)
		if ultimoDia.After(hoy) {
			ultimoDia = hoy
		}
		ventanas = append(ventanas, invoice.SearchWindow{
			Desde: primerDia,
			Hasta: ultimoDia.Add(24*time.Hour - time.Second),
		})
	}
	return ventanas
}
