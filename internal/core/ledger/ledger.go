// Package ledger models the submission ledger that makes accounting
// voucher uploads idempotent.
package ledger

import (
	"context"
	"encoding/json"
	"time"
)

// Outcome classifies the result of submitting one invoice to accounting.
type Outcome string

const (
	OutcomeSubmitted        Outcome = "SUBMITTED"
	OutcomeAlreadySubmitted Outcome = "ALREADY_SUBMITTED"
	OutcomeCancelled        Outcome = "CANCELLED"
	OutcomeMissingAccount   Outcome = "MISSING_ACCOUNT"
)

// Entry records one submitted invoice. The pair (FolioUnico, RutProveedor)
// is the idempotency key; the document id alone is not stable across source
// re-fetches.
type Entry struct {
	FolioUnico   string    `json:"folioUnico"`
	RutProveedor string    `json:"rutProveedor"`
	IDDocumento  int64     `json:"idDocumento"`
	SubidaAt     time.Time `json:"subidaAt"`

	// Snapshot is the invoice as it looked when it was submitted.
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}

// Voucher is an accounting voucher ready for submission to the ERP.
type Voucher struct {
	Usuario         string
	TipoComprobante string
	Fecha           string
	Comentario      string
	Detalle         []VoucherLine
}

// VoucherLine is one debit or credit line. Every voucher balances: each
// debit line is mirrored by a credit against the central office unit.
type VoucherLine struct {
	Cuenta         string
	Debe           int64
	Haber          int64
	Comentario     string
	RutFicha       string
	Documento      string
	FolioDocumento string
	UnidadNegocio  string
}

// Debits sums the debit side of the voucher.
func (v Voucher) Debits() int64 {
	var total int64
	for _, l := range v.Detalle {
		total += l.Debe
	}
	return total
}

// Credits sums the credit side of the voucher.
func (v Voucher) Credits() int64 {
	var total int64
	for _, l := range v.Detalle {
		total += l.Haber
	}
	return total
}

// Repository persists submission entries.
type Repository interface {
	// InsertIfAbsent records the entry unless its idempotency key already
	// exists. It reports whether the entry was inserted.
	InsertIfAbsent(ctx context.Context, entry Entry) (bool, error)
	Exists(ctx context.Context, folioUnico, rutProveedor string) (bool, error)
	List(ctx context.Context) ([]Entry, error)
}
