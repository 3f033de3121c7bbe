// Package postgres persists the last fetched invoice set as a queryable
// snapshot.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"constructoraicc/gopagos/internal/core/invoice"
)

// Store implements the pipeline's snapshot port on PostgreSQL. Each run
// upserts the full candidate set keyed by document id.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL invoice snapshot store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Guardar upserts every invoice. A snapshot failure never aborts the
// pipeline, so errors here are reported and left to the caller to log.
func (s *Store) Guardar(ctx context.Context, facturas []invoice.Invoice) error {
	query := `
		INSERT INTO facturas (
			id_documento, folio_unico, rut_proveedor, nom_proveedor,
			fecha_emision, tipo_factura, monto_total, estado_doc,
			estado_asociacion, estado_pago, centro_gestion, concepto_compras,
			cuenta, cuenta2, unidad_negocio, monto_neto, monto_no_afecto, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now()
		)
		ON CONFLICT (id_documento) DO UPDATE SET
			folio_unico = EXCLUDED.folio_unico,
			rut_proveedor = EXCLUDED.rut_proveedor,
			nom_proveedor = EXCLUDED.nom_proveedor,
			fecha_emision = EXCLUDED.fecha_emision,
			tipo_factura = EXCLUDED.tipo_factura,
			monto_total = EXCLUDED.monto_total,
			estado_doc = EXCLUDED.estado_doc,
			estado_asociacion = EXCLUDED.estado_asociacion,
			estado_pago = EXCLUDED.estado_pago,
			centro_gestion = EXCLUDED.centro_gestion,
			concepto_compras = EXCLUDED.concepto_compras,
			cuenta = EXCLUDED.cuenta,
			cuenta2 = EXCLUDED.cuenta2,
			unidad_negocio = EXCLUDED.unidad_negocio,
			monto_neto = EXCLUDED.monto_neto,
			monto_no_afecto = EXCLUDED.monto_no_afecto,
			updated_at = now()
	`

	for _, f := range facturas {
		var emision *time.Time
		if !f.FechaEmision.IsZero() {
			emision = &f.FechaEmision
		}

		_, err := s.pool.Exec(ctx, query,
			f.IDDocumento,
			f.FolioUnico,
			f.RutProveedor,
			f.NomProveedor,
			emision,
			f.TipoFactura,
			f.MontoTotal,
			f.EstadoDoc,
			f.EstadoAsociacion,
			f.EstadoPago,
			f.CentroGestion,
			f.ConceptoCompras,
			f.Cuenta,
			f.Cuenta2,
			f.UnidadNegocio,
			f.MontoNeto,
			f.MontoNoAfecto,
		)
		if err != nil {
			return fmt.Errorf("upsert factura %d: %w", f.IDDocumento, err)
		}
	}
	return nil
}
