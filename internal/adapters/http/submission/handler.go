// Package submission exposes the accounting upload over HTTP.
package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"constructoraicc/gopagos/internal/adapters/ledger/kame"
	apppayment "constructoraicc/gopagos/internal/application/payment"
	appsubmission "constructoraicc/gopagos/internal/application/submission"
	"constructoraicc/gopagos/internal/core/invoice"
	"constructoraicc/gopagos/internal/core/ledger"
	httperrors "constructoraicc/gopagos/internal/infrastructure/http"
)

// UnitSource lists the business units known to the ERP.
type UnitSource interface {
	ListUnidadesNegocio(ctx context.Context) ([]kame.UnidadNegocioERP, error)
}

// Handler bridges HTTP traffic with the submission service. It resolves
// requested document ids against the last pipeline run, so a flujo must
// have been executed before uploading.
type Handler struct {
	submitter *appsubmission.Service
	pagos     *apppayment.Service
	registro  ledger.Repository
	unidades  UnitSource
	log       *slog.Logger
}

// NewHandler creates a new submission HTTP handler. unidades is optional;
// without it the unit listing returns 503.
func NewHandler(submitter *appsubmission.Service, pagos *apppayment.Service, registro ledger.Repository, unidades UnitSource, log *slog.Logger) *Handler {
	return &Handler{submitter: submitter, pagos: pagos, registro: registro, unidades: unidades, log: log}
}

// SubirRequest selects the invoices to upload by document id. An empty
// list uploads nothing.
type SubirRequest struct {
	IDDocumentos []int64 `json:"idDocumentos"`
}

// SubirResponse reports one outcome per requested invoice.
type SubirResponse struct {
	Resultados []appsubmission.Result `json:"resultados"`
}

// Subir handles POST /api/kame/subir.
func (h *Handler) Subir(w http.ResponseWriter, r *http.Request) {
	var req SubirRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}
	if len(req.IDDocumentos) == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"idDocumentos es requerido"}, h.log)
		return
	}

	ultimo, ok := h.pagos.UltimoFlujo()
	if !ok {
		httperrors.WriteError(w, http.StatusConflict, "No hay un flujo ejecutado", []string{apppayment.ErrSinFlujo.Error()}, h.log)
		return
	}

	porID := make(map[int64]invoice.Invoice, len(ultimo.Candidatos))
	for _, c := range ultimo.Candidatos {
		porID[c.IDDocumento] = c.Invoice
	}

	resultados := make([]appsubmission.Result, 0, len(req.IDDocumentos))
	var pendientes []invoice.Invoice
	for _, id := range req.IDDocumentos {
		f, ok := porID[id]
		if !ok {
			resultados = append(resultados, appsubmission.Result{
				IDDocumento: id,
				Error:       fmt.Sprintf("factura %d no está en el último flujo", id),
			})
			continue
		}
		pendientes = append(pendientes, f)
	}
	resultados = append(resultados, h.submitter.SubmitAll(r.Context(), pendientes)...)

	httperrors.WriteJSON(w, http.StatusOK, SubirResponse{Resultados: resultados}, h.log)
}

// Subidas handles GET /api/kame/subidas.
func (h *Handler) Subidas(w http.ResponseWriter, r *http.Request) {
	entradas, err := h.registro.List(r.Context())
	if err != nil {
		h.log.Error("no se pudo listar el registro de subidas", "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error interno", []string{err.Error()}, h.log)
		return
	}
	if entradas == nil {
		entradas = []ledger.Entry{}
	}
	httperrors.WriteJSON(w, http.StatusOK, entradas, h.log)
}

// Unidades handles GET /api/kame/unidades.
func (h *Handler) Unidades(w http.ResponseWriter, r *http.Request) {
	if h.unidades == nil {
		httperrors.WriteError(w, http.StatusServiceUnavailable, "ERP no configurado", []string{"el listado de unidades de negocio no está disponible"}, h.log)
		return
	}
	unidades, err := h.unidades.ListUnidadesNegocio(r.Context())
	if err != nil {
		h.log.Error("no se pudieron listar las unidades de negocio", "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "No se pudieron listar las unidades de negocio", []string{err.Error()}, h.log)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, unidades, h.log)
}
