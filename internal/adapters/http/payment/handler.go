// Package payment exposes the reconciliation pipeline over HTTP.
package payment

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	apppayment "constructoraicc/gopagos/internal/application/payment"
	httperrors "constructoraicc/gopagos/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the payment application service.
type Handler struct {
	service *apppayment.Service
	log     *slog.Logger
}

// NewHandler creates a new payment HTTP handler.
func NewHandler(service *apppayment.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// FlujoRequest carries the cession bulletin text extracted from the PDF
// and an optional window-depth override in calendar months.
type FlujoRequest struct {
	Certificado string `json:"certificado"`
	Meses       int    `json:"meses,omitempty"`
}

// Flujo handles POST /api/pagos/flujo. The body is either a JSON object
// with the certificate text or the raw text itself; an empty body runs
// the pipeline without cessions.
func (h *Handler) Flujo(w http.ResponseWriter, r *http.Request) {
	req, err := leerFlujoRequest(r)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{err.Error()}, h.log)
		return
	}

	resultado, err := h.service.Flujo(r.Context(), req.Certificado, req.Meses)
	if err != nil {
		h.log.Error("flujo de pagos falló", "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "No se pudo ejecutar el flujo de pagos", []string{err.Error()}, h.log)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, resultado, h.log)
}

// Candidatos handles GET /api/pagos/candidatos.
func (h *Handler) Candidatos(w http.ResponseWriter, r *http.Request) {
	candidatos, err := h.service.Candidatos(r.Context())
	if err != nil {
		h.log.Error("no se pudieron preparar candidatos", "error", err)
		httperrors.WriteError(w, http.StatusBadGateway, "No se pudieron preparar los candidatos de pago", []string{err.Error()}, h.log)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, candidatos, h.log)
}

// CesionesNoCruzadas handles GET /api/pagos/cesiones-no-cruzadas.
func (h *Handler) CesionesNoCruzadas(w http.ResponseWriter, r *http.Request) {
	cesiones, err := h.service.CesionesNoCruzadas()
	if err != nil {
		h.escribirErrorLectura(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, cesiones, h.log)
}

// Planilla handles GET /api/pagos/planilla.
func (h *Handler) Planilla(w http.ResponseWriter, r *http.Request) {
	lineas, err := h.service.Planilla(r.Context())
	if err != nil {
		h.escribirErrorLectura(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, lineas, h.log)
}

// UltimoFlujo handles GET /api/pagos/flujo.
func (h *Handler) UltimoFlujo(w http.ResponseWriter, r *http.Request) {
	resultado, ok := h.service.UltimoFlujo()
	if !ok {
		httperrors.WriteError(w, http.StatusConflict, "No hay un flujo ejecutado", []string{apppayment.ErrSinFlujo.Error()}, h.log)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, resultado, h.log)
}

func (h *Handler) escribirErrorLectura(w http.ResponseWriter, err error) {
	if errors.Is(err, apppayment.ErrSinFlujo) {
		httperrors.WriteError(w, http.StatusConflict, "No hay un flujo ejecutado", []string{err.Error()}, h.log)
		return
	}
	h.log.Error("lectura del flujo falló", "error", err)
	httperrors.WriteError(w, http.StatusInternalServerError, "Error interno", []string{err.Error()}, h.log)
}

func leerFlujoRequest(r *http.Request) (FlujoRequest, error) {
	cuerpo, err := io.ReadAll(r.Body)
	if err != nil {
		return FlujoRequest{}, errors.New("no se pudo leer el cuerpo de la petición")
	}
	if len(cuerpo) == 0 {
		return FlujoRequest{}, nil
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req FlujoRequest
		if err := json.Unmarshal(cuerpo, &req); err != nil {
			return FlujoRequest{}, errors.New("el cuerpo de la petición no es JSON válido")
		}
		return req, nil
	}
	return FlujoRequest{Certificado: string(cuerpo)}, nil
}
