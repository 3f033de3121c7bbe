// Package testutil provides in-memory doubles for the persistence and
// source ports.
package testutil

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/ledger"
	"constructoraicc/gopagos/internal/core/master"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// LedgerRepo is an in-memory submission ledger.
type LedgerRepo struct {
	mu       sync.Mutex
	entradas map[string]ledger.Entry
	// Err, when set, is returned by every method.
	Err error
}

func NewLedgerRepo() *LedgerRepo {
	return &LedgerRepo{entradas: make(map[string]ledger.Entry)}
}

func (r *LedgerRepo) clave(folio, rut string) string { return folio + "|" + rut }

func (r *LedgerRepo) InsertIfAbsent(_ context.Context, e ledger.Entry) (bool, error) {
	if r.Err != nil {
		return false, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clave := r.clave(e.FolioUnico, e.RutProveedor)
	if _, ok := r.entradas[clave]; ok {
		return false, nil
	}
	if e.SubidaAt.IsZero() {
		e.SubidaAt = time.Now()
	}
	r.entradas[clave] = e
	return true, nil
}

func (r *LedgerRepo) Exists(_ context.Context, folio, rut string) (bool, error) {
	if r.Err != nil {
		return false, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entradas[r.clave(folio, rut)]
	return ok, nil
}

func (r *LedgerRepo) List(_ context.Context) ([]ledger.Entry, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entradas := make([]ledger.Entry, 0, len(r.entradas))
	for _, e := range r.entradas {
		entradas = append(entradas, e)
	}
	return entradas, nil
}

// InvoiceSource serves fixed invoices and credit notes regardless of the
// window. Calls are counted so tests can assert the monthly fan-out.
type InvoiceSource struct {
	Facturas []invoice.Invoice
	Notas    []invoice.CreditNote
	Err      error

	mu       sync.Mutex
	Llamadas int
}

func (s *InvoiceSource) BuscarFacturas(_ context.Context, _, _ time.Time) ([]invoice.Invoice, error) {
	s.mu.Lock()
	s.Llamadas++
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Facturas, nil
}

func (s *InvoiceSource) BuscarNotasCredito(_ context.Context, _, _ time.Time) ([]invoice.CreditNote, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Notas, nil
}

// DetailSource serves canned amount breakdowns keyed by document id.
// Lookups may come from several goroutines at once.
type DetailSource struct {
	Detalles map[int64]invoice.Detail
	Err      error

	mu       sync.Mutex
	Llamadas int
}

func (s *DetailSource) ObtenerDetalle(_ context.Context, idDocumento int64) (invoice.Detail, error) {
	s.mu.Lock()
	s.Llamadas++
	s.mu.Unlock()
	if s.Err != nil {
		return invoice.Detail{}, s.Err
	}
	return s.Detalles[idDocumento], nil
}

// FichaSource serves a fixed ficha list.
type FichaSource struct {
	Fichas []master.Ficha
	Err    error
}

func (s *FichaSource) ListFichas(context.Context) ([]master.Ficha, error) {
	return s.Fichas, s.Err
}

// TableSource serves fixed reference tables.
type TableSource struct {
	Cuentas  []master.CuentaMapping
	Unidades []master.UnidadNegocio
	Banco    []master.BankRecord
	Err      error
}

func (s *TableSource) CargarCuentas() ([]master.CuentaMapping, error) {
	return s.Cuentas, s.Err
}

func (s *TableSource) CargarUnidades() ([]master.UnidadNegocio, error) {
	return s.Unidades, s.Err
}

func (s *TableSource) CargarBanco() ([]master.BankRecord, error) {
	return s.Banco, s.Err
}

// SnapshotStore records the last snapshot it was given.
type SnapshotStore struct {
	mu       sync.Mutex
	Guardado []invoice.Invoice
	Err      error
}

func (s *SnapshotStore) Guardar(_ context.Context, facturas []invoice.Invoice) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	s.Guardado = facturas
	s.mu.Unlock()
	return nil
}
