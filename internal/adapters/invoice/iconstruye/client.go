// Package iconstruye implements the purchasing API adapter.
package iconstruye

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"constructoraicc/gopagos/internal/core/invoice"
)

const (
	apiVersion       = "1.0"
	fechaParamLayout = "2006-01-02 15:04:05"
)

// HTTPClient abstracts the HTTP transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client consumes the iConstruye purchasing API. Search failures degrade to
// an empty result so one bad window does not abort the whole monthly sweep;
// per-document detail lookups do return their error so the caller can skip
// just that document.
type Client struct {
	baseURL         string
	subscriptionKey string
	orgID           int
	httpClient      HTTPClient
	limiter         *ConcurrentRequestLimiter
	log             *slog.Logger
}

func NewClient(baseURL, subscriptionKey string, orgID, maxConcurrent int, httpClient HTTPClient, log *slog.Logger) *Client {
	return &Client{
		baseURL:         baseURL,
		subscriptionKey: subscriptionKey,
		orgID:           orgID,
		httpClient:      httpClient,
		limiter:         NewConcurrentRequestLimiter(maxConcurrent),
		log:             log,
	}
}

// facturaDocumento is one invoice row as the search endpoint returns it.
type facturaDocumento struct {
	IDDocumento      int64   `json:"idDocumento"`
	FolioUnico       string  `json:"folioUnico"`
	RutProveedor     string  `json:"rutProveedor"`
	NomProveedor     string  `json:"nomProveedor"`
	FechaEmision     string  `json:"fechaEmision"`
	TipoFactura      string  `json:"tipoFactura"`
	MontoTotal       float64 `json:"montoTotal"`
	Moneda           string  `json:"moneda"`
	EstadoDoc        string  `json:"estadoDoc"`
	EstadoAsociacion string  `json:"estadoAsociacion"`
	EstadoPago       string  `json:"estadoPago"`
	CentroGestion    string  `json:"centroGestion"`
}

// notaCorreccion is one credit note row from the search endpoint.
type notaCorreccion struct {
	NumDoc           string  `json:"numDoc"`
	FactAsociada     string  `json:"factAsociada"`
	NombreProveedor  string  `json:"nombreProveedor"`
	RutProveedor     string  `json:"rutProveedor"`
	CentroGestion    string  `json:"centroGestion"`
	FechaEmision     string  `json:"fechaEmision"`
	MontoTotal       float64 `json:"montoTotal"`
	EstadoDoc        string  `json:"estadoDoc"`
	EstadoAsociacion string  `json:"estadoAsociacion"`
}

// detalleFactura mirrors the nested totals of the by-id endpoint.
type detalleFactura struct {
	Cabecera struct {
		Totales struct {
			Neto struct {
				MontoNeto            *float64 `json:"montoNeto"`
				MontoNoAfectoOExento *float64 `json:"montoNoAfectoOExento"`
			} `json:"neto"`
		} `json:"totales"`
	} `json:"cabecera"`
}

// BuscarFacturas fetches the invoices received in the window.
func (c *Client) BuscarFacturas(ctx context.Context, desde, hasta time.Time) ([]invoice.Invoice, error) {
	body, err := c.buscar(ctx, "/api/Factura/Buscar", desde, hasta)
	if err != nil {
		c.log.Error("búsqueda de facturas falló, se continúa con resultado vacío",
			"desde", desde.Format(fechaParamLayout), "error", err)
		return nil, nil
	}
	if len(body) == 0 {
		return nil, nil
	}

	var docs []facturaDocumento
	if err := json.Unmarshal(body, &docs); err != nil {
		c.log.Error("respuesta de facturas no es una lista válida", "error", err)
		return nil, nil
	}

	facturas := make([]invoice.Invoice, 0, len(docs))
	for _, d := range docs {
		f, err := c.transformarFactura(d)
		if err != nil {
			c.log.Warn("factura descartada", "idDocumento", d.IDDocumento, "error", err)
			continue
		}
		facturas = append(facturas, f)
	}
	c.log.Debug("facturas obtenidas", "total", len(facturas),
		"desde", desde.Format(fechaParamLayout), "hasta", hasta.Format(fechaParamLayout))
	return facturas, nil
}

// BuscarNotasCredito fetches the credit notes received in the window.
func (c *Client) BuscarNotasCredito(ctx context.Context, desde, hasta time.Time) ([]invoice.CreditNote, error) {
	body, err := c.buscar(ctx, "/api/NotasCorreccion/Buscar", desde, hasta)
	if err != nil {
		c.log.Error("búsqueda de notas de crédito falló, se continúa con resultado vacío",
			"desde", desde.Format(fechaParamLayout), "error", err)
		return nil, nil
	}
	if len(body) == 0 {
		return nil, nil
	}

	var docs []notaCorreccion
	if err := json.Unmarshal(body, &docs); err != nil {
		c.log.Error("respuesta de notas de crédito no es una lista válida", "error", err)
		return nil, nil
	}

	notas := make([]invoice.CreditNote, 0, len(docs))
	for _, d := range docs {
		fecha, _ := parseFecha(d.FechaEmision)
		notas = append(notas, invoice.CreditNote{
			NumDoc:           d.NumDoc,
			FactAsociada:     d.FactAsociada,
			NombreProveedor:  d.NombreProveedor,
			RutProveedor:     d.RutProveedor,
			CentroGestion:    d.CentroGestion,
			FechaEmision:     fecha,
			MontoTotal:       d.MontoTotal,
			EstadoDoc:        d.EstadoDoc,
			EstadoAsociacion: d.EstadoAsociacion,
		})
	}
	return notas, nil
}

// ObtenerDetalle fetches the amount breakdown of one invoice. Calls are
// bounded by the concurrency limiter.
func (c *Client) ObtenerDetalle(ctx context.Context, idDocumento int64) (invoice.Detail, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return invoice.Detail{}, err
	}
	defer c.limiter.Release()

	endpoint := fmt.Sprintf("%s/api/Factura/PorId?IdDoc=%d&api-version=%s", c.baseURL, idDocumento, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return invoice.Detail{}, fmt.Errorf("creando request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return invoice.Detail{}, fmt.Errorf("ejecutando request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return invoice.Detail{}, fmt.Errorf("leyendo respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return invoice.Detail{}, fmt.Errorf("estado inesperado %d: %s", resp.StatusCode, string(body))
	}

	detalle, err := parseDetalle(body)
	if err != nil {
		return invoice.Detail{}, err
	}

	c.log.Debug("detalle de factura obtenido", "idDocumento", idDocumento,
		"montoNeto", detalle.MontoNeto, "montoNoAfecto", detalle.MontoNoAfecto)
	return detalle, nil
}

func (c *Client) buscar(ctx context.Context, path string, desde, hasta time.Time) ([]byte, error) {
	params := url.Values{}
	params.Set("IdOrgc", strconv.Itoa(c.orgID))
	params.Set("FechaRecepDesde", desde.Format(fechaParamLayout))
	params.Set("FechaRecepHasta", hasta.Format(fechaParamLayout))
	params.Set("api-version", apiVersion)

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creando request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ejecutando request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("leyendo respuesta: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("estado inesperado %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *Client) transformarFactura(d facturaDocumento) (invoice.Invoice, error) {
	fecha, err := parseFecha(d.FechaEmision)
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("fecha de emisión [%s]: %w", d.FechaEmision, err)
	}
	return invoice.Invoice{
		IDDocumento:      d.IDDocumento,
		FolioUnico:       d.FolioUnico,
		RutProveedor:     d.RutProveedor,
		NomProveedor:     d.NomProveedor,
		FechaEmision:     fecha,
		TipoFactura:      strings.TrimSpace(d.TipoFactura),
		MontoTotal:       d.MontoTotal,
		Moneda:           d.Moneda,
		EstadoDoc:        d.EstadoDoc,
		EstadoAsociacion: d.EstadoAsociacion,
		EstadoPago:       strings.TrimSpace(d.EstadoPago),
		CentroGestion:    d.CentroGestion,
	}, nil
}

// parseDetalle tolerates the two shapes the by-id endpoint is known to
// return: a single object or a one-element list.
func parseDetalle(body []byte) (invoice.Detail, error) {
	var uno detalleFactura
	if err := json.Unmarshal(body, &uno); err == nil && (uno.Cabecera.Totales.Neto.MontoNeto != nil || uno.Cabecera.Totales.Neto.MontoNoAfectoOExento != nil) {
		return invoice.Detail{
			MontoNeto:     uno.Cabecera.Totales.Neto.MontoNeto,
			MontoNoAfecto: uno.Cabecera.Totales.Neto.MontoNoAfectoOExento,
		}, nil
	}

	var varios []detalleFactura
	if err := json.Unmarshal(body, &varios); err == nil && len(varios) > 0 {
		return invoice.Detail{
			MontoNeto:     varios[0].Cabecera.Totales.Neto.MontoNeto,
			MontoNoAfecto: varios[0].Cabecera.Totales.Neto.MontoNoAfectoOExento,
		}, nil
	}

	return invoice.Detail{}, fmt.Errorf("detalle sin estructura reconocible: %s", string(body))
}

var fechaLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

func parseFecha(s string) (time.Time, error) {
	var err error
	for _, layout := range fechaLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
