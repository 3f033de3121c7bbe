package kame

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"constructoraicc/gopagos/internal/core/ledger"
	"constructoraicc/gopagos/internal/core/master"
)

// Client consumes the ERP REST API.
type Client struct {
	baseURL    string
	auth       *AuthManager
	httpClient HTTPClient
	log        *slog.Logger
}

func NewClient(baseURL string, auth *AuthManager, httpClient HTTPClient, log *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		auth:       auth,
		httpClient: httpClient,
		log:        log,
	}
}

// fichaPage is one page of the paginated ficha listing.
type fichaPage struct {
	Items   []master.Ficha `json:"items"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Total   int            `json:"total"`
}

// UnidadNegocioERP is one business unit as the ERP lists it.
type UnidadNegocioERP struct {
	UnidadNegocio string `json:"unidadNegocio"`
	Estado        string `json:"estado"`
}

// comprobanteRequest is the voucher submission payload.
type comprobanteRequest struct {
	Usuario         string             `json:"usuario"`
	TipoComprobante string             `json:"tipoComprobante"`
	Folio           string             `json:"folio"`
	Fecha           string             `json:"fecha"`
	Comentario      string             `json:"comentario"`
	Detalle         []comprobanteLinea `json:"detalle"`
}

// comprobanteLinea is one debit or credit line of a voucher. The movement
// fields are always sent, empty, the ERP rejects the payload without them.
type comprobanteLinea struct {
	Cuenta           string `json:"cuenta"`
	Debe             int64  `json:"debe"`
	Haber            int64  `json:"haber"`
	Comentario       string `json:"comentario"`
	RutFicha         string `json:"rutFicha"`
	Documento        string `json:"documento"`
	FolioDocumento   string `json:"folioDocumento"`
	UnidadNegocio    string `json:"unidadNegocio"`
	FechaVencimiento string `json:"fechaVencimiento"`
	TipoMovimiento   string `json:"tipoMovimiento"`
	NumeroMovimiento string `json:"numeroMovimiento"`
}

// ListFichas walks the paginated ficha listing until every record is
// fetched.
func (c *Client) ListFichas(ctx context.Context) ([]master.Ficha, error) {
	var fichas []master.Ficha
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/api/Maestro/getListFicha?page=%d", c.baseURL, page)
		body, err := c.get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("listando fichas página %d: %w", page, err)
		}

		var p fichaPage
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decodificando fichas página %d: %w", page, err)
		}
		if len(p.Items) == 0 {
			break
		}
		fichas = append(fichas, p.Items...)

		if p.PerPage <= 0 || page*p.PerPage >= p.Total {
			break
		}
	}
	c.log.Debug("fichas de proveedores obtenidas", "total", len(fichas))
	return fichas, nil
}

// ListUnidadesNegocio fetches the business units known to the ERP.
func (c *Client) ListUnidadesNegocio(ctx context.Context) ([]UnidadNegocioERP, error) {
	body, err := c.get(ctx, c.baseURL+"/api/Maestro/getListUnidadNegocio")
	if err != nil {
		return nil, fmt.Errorf("listando unidades de negocio: %w", err)
	}

	var unidades []UnidadNegocioERP
	if err := json.Unmarshal(body, &unidades); err != nil {
		return nil, fmt.Errorf("decodificando unidades de negocio: %w", err)
	}
	return unidades, nil
}

// AddComprobante submits an accounting voucher.
func (c *Client) AddComprobante(ctx context.Context, comp ledger.Voucher) error {
	token, err := c.auth.GetToken(ctx)
	if err != nil {
		return err
	}

	detalle := make([]comprobanteLinea, len(comp.Detalle))
	for i, l := range comp.Detalle {
		detalle[i] = comprobanteLinea{
			Cuenta:         l.Cuenta,
			Debe:           l.Debe,
			Haber:          l.Haber,
			Comentario:     l.Comentario,
			RutFicha:       l.RutFicha,
			Documento:      l.Documento,
			FolioDocumento: l.FolioDocumento,
			UnidadNegocio:  l.UnidadNegocio,
		}
	}

	jsonData, err := json.Marshal(comprobanteRequest{
		Usuario:         comp.Usuario,
		TipoComprobante: comp.TipoComprobante,
		Folio:           "",
		Fecha:           comp.Fecha,
		Comentario:      comp.Comentario,
		Detalle:         detalle,
	})
	if err != nil {
		return fmt.Errorf("serializando comprobante: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/Contabilidad/addComprobante", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creando request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ejecutando request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("leyendo respuesta: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.auth.ClearToken()
		return fmt.Errorf("token expirado o inválido")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("estado inesperado %d: %s", resp.StatusCode, string(body))
	}

	c.log.Info("comprobante enviado al ERP", "comentario", comp.Comentario)
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	token, err := c.auth.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creando request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ejecutando request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("leyendo respuesta: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.auth.ClearToken()
		return nil, fmt.Errorf("token expirado o inválido")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("estado inesperado %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
