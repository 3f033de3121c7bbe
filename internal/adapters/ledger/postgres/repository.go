// Package postgres persists the submission ledger in PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"constructoraicc/gopagos/internal/core/ledger"
)

// Repository implements ledger.Repository using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL submission ledger repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertIfAbsent appends the entry unless its (folioUnico, rutProveedor)
// key already exists. The primary key plus ON CONFLICT DO NOTHING makes
// the check-and-append a single atomic statement.
func (r *Repository) InsertIfAbsent(ctx context.Context, entry ledger.Entry) (bool, error) {
	snapshot := entry.Snapshot
	if len(snapshot) == 0 {
		snapshot = []byte("{}")
	}

	query := `
		INSERT INTO facturas_subidas (folio_unico, rut_proveedor, id_documento, snapshot, subida_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (folio_unico, rut_proveedor) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		entry.FolioUnico,
		entry.RutProveedor,
		entry.IDDocumento,
		snapshot,
		entry.SubidaAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert facturas_subidas: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Exists reports whether the (folioUnico, rutProveedor) pair was already
// submitted.
func (r *Repository) Exists(ctx context.Context, folioUnico, rutProveedor string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM facturas_subidas
			WHERE folio_unico = $1 AND rut_proveedor = $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, folioUnico, rutProveedor).Scan(&exists); err != nil {
		return false, fmt.Errorf("check facturas_subidas: %w", err)
	}
	return exists, nil
}

// List returns every ledger entry, newest first.
func (r *Repository) List(ctx context.Context) ([]ledger.Entry, error) {
	query := `
		SELECT folio_unico, rut_proveedor, id_documento, snapshot, subida_at
		FROM facturas_subidas
		ORDER BY subida_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list facturas_subidas: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.FolioUnico, &e.RutProveedor, &e.IDDocumento, &e.Snapshot, &e.SubidaAt); err != nil {
			return nil, fmt.Errorf("scan facturas_subidas: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facturas_subidas: %w", err)
	}
	return entries, nil
}
