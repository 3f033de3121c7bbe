package iconstruye

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"constructoraicc/gopagos/internal/testutil"
)

func clientePrueba(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "clave-prueba", -1, 4, srv.Client(), testutil.Logger())
}

func TestBuscarFacturas(t *testing.T) {
	c := clientePrueba(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Factura/Buscar", r.URL.Path)
		assert.Equal(t, "clave-prueba", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "-1", r.URL.Query().Get("IdOrgc"))
		assert.Equal(t, "1.0", r.URL.Query().Get("api-version"))
		assert.NotEmpty(t, r.URL.Query().Get("FechaRecepDesde"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"idDocumento": 77,
			"folioUnico": "4581",
			"rutProveedor": "76111222-3",
			"nomProveedor": "PROVEEDOR UNO LTDA",
			"fechaEmision": "2025-07-01T00:00:00",
			"tipoFactura": "Factura Electrónica ",
			"montoTotal": 1190000,
			"estadoDoc": "Aprobada",
			"estadoPago": " Pendiente",
			"centroGestion": "1001 OBRA NORTE"
		}]`))
	})

	facturas, err := c.BuscarFacturas(context.Background(), fechaVentana(2025, 7, 1), fechaVentana(2025, 7, 31))
	require.NoError(t, err)
	require.Len(t, facturas, 1)

	f := facturas[0]
	assert.Equal(t, int64(77), f.IDDocumento)
	assert.Equal(t, "Factura Electrónica", f.TipoFactura)
	assert.Equal(t, "Pendiente", f.EstadoPago)
	assert.Equal(t, fechaVentana(2025, 7, 1), f.FechaEmision)
}

func TestBuscarFacturasDegradaAVacio(t *testing.T) {
	c := clientePrueba(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	facturas, err := c.BuscarFacturas(context.Background(), fechaVentana(2025, 7, 1), fechaVentana(2025, 7, 31))
	assert.NoError(t, err)
	assert.Empty(t, facturas)
}

func TestBuscarFacturasSinContenido(t *testing.T) {
	c := clientePrueba(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	facturas, err := c.BuscarFacturas(context.Background(), fechaVentana(2025, 7, 1), fechaVentana(2025, 7, 31))
	assert.NoError(t, err)
	assert.Empty(t, facturas)
}

func TestBuscarNotasCredito(t *testing.T) {
	c := clientePrueba(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/NotasCorreccion/Buscar", r.URL.Path)
		w.Write([]byte(`[{
			"numDoc": "NC-1",
			"factAsociada": "4581",
			"rutProveedor": "76111222-3",
			"fechaEmision": "2025-07-10",
			"montoTotal": 50000
		}]`))
	})

	notas, err := c.BuscarNotasCredito(context.Background(), fechaVentana(2025, 7, 1), fechaVentana(2025, 7, 31))
	require.NoError(t, err)
	require.Len(t, notas, 1)
	assert.Equal(t, "4581", notas[0].FactAsociada)
	assert.Equal(t, 50000.0, notas[0].MontoTotal)
}

func TestObtenerDetalle(t *testing.T) {
	c := clientePrueba(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Factura/PorId", r.URL.Path)
		assert.Equal(t, "77", r.URL.Query().Get("IdDoc"))
		w.Write([]byte(`{"cabecera":{"totales":{"neto":{"montoNeto":1000000,"montoNoAfectoOExento":2500}}}}`))
	})

	detalle, err := c.ObtenerDetalle(context.Background(), 77)
	require.NoError(t, err)
	require.NotNil(t, detalle.MontoNeto)
	assert.Equal(t, 1000000.0, *detalle.MontoNeto)
	require.NotNil(t, detalle.MontoNoAfecto)
	assert.Equal(t, 2500.0, *detalle.MontoNoAfecto)
}

func TestObtenerDetalleLista(t *testing.T) {
	c := clientePrueba(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"cabecera":{"totales":{"neto":{"montoNeto":500}}}}]`))
	})

	detalle, err := c.ObtenerDetalle(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, detalle.MontoNeto)
	assert.Equal(t, 500.0, *detalle.MontoNeto)
}

func TestObtenerDetalleError(t *testing.T) {
	c := clientePrueba(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no existe", http.StatusNotFound)
	})

	_, err := c.ObtenerDetalle(context.Background(), 1)
	assert.Error(t, err)
}

func TestObtenerDetalleRespetaLimite(t *testing.T) {
	var enCurso, maxEnCurso int32
	c := clientePrueba(t, func(w http.ResponseWriter, _ *http.Request) {
		actual := atomic.AddInt32(&enCurso, 1)
		for {
			max := atomic.LoadInt32(&maxEnCurso)
			if actual <= max || atomic.CompareAndSwapInt32(&maxEnCurso, max, actual) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&enCurso, -1)
		w.Write([]byte(`{"cabecera":{"totales":{"neto":{"montoNeto":1}}}}`))
	})

	done := make(chan struct{})
	for i := 0; i < 12; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			c.ObtenerDetalle(context.Background(), 1)
		}()
	}
	for i := 0; i < 12; i++ {
		<-done
	}

	assert.LessOrEqual(t, atomic.LoadInt32(&maxEnCurso), int32(4))
}

func TestLimiterAcquireCancelado(t *testing.T) {
	l := NewConcurrentRequestLimiter(1)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Acquire(ctx))

	l.Release()
	assert.Zero(t, l.ActiveCount())
}

func fechaVentana(anio, mes, dia int) time.Time {
	return time.Date(anio, time.Month(mes), dia, 0, 0, 0, 0, time.UTC)
}
