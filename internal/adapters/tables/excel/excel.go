// Package excel loads the operator-maintained reference workbooks: the
// account mapping, the business-unit table and the Santander transfer
// directory.
package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"constructoraicc/gopagos/internal/core/master"
)

// Loader reads the reference tables from xlsx files on disk. The files
// are edited by hand, so header lookup tolerates line breaks and the
// "(obligatorio)" annotations the bank template carries.
type Loader struct {
	CuentasPath   string
	UnidadesPath  string
	SantanderPath string
}

func NewLoader(cuentasPath, unidadesPath, santanderPath string) *Loader {
	return &Loader{
		CuentasPath:   cuentasPath,
		UnidadesPath:  unidadesPath,
		SantanderPath: santanderPath,
	}
}

// CargarCuentas reads the purchase-concept to account mapping.
func (l *Loader) CargarCuentas() ([]master.CuentaMapping, error) {
	filas, err := leerHoja(l.CuentasPath)
	if err != nil {
		return nil, err
	}
	cols, err := buscarColumnas(filas, "concepto", "cuenta", "cuenta 2")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.CuentasPath, err)
	}

	var cuentas []master.CuentaMapping
	for _, fila := range filas[1:] {
		c := master.CuentaMapping{
			Concepto: celda(fila, cols[0]),
			Cuenta:   celda(fila, cols[1]),
			Cuenta2:  celda(fila, cols[2]),
		}
		if c.Concepto == "" {
			continue
		}
		cuentas = append(cuentas, c)
	}
	return cuentas, nil
}

// CargarUnidades reads the cost-center to business-unit table.
func (l *Loader) CargarUnidades() ([]master.UnidadNegocio, error) {
	filas, err := leerHoja(l.UnidadesPath)
	if err != nil {
		return nil, err
	}
	cols, err := buscarColumnas(filas, "unidad de negocio", "estado", "centro de costo previred")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.UnidadesPath, err)
	}

	var unidades []master.UnidadNegocio
	for _, fila := range filas[1:] {
		u := master.UnidadNegocio{
			UnidadNegocio:       celda(fila, cols[0]),
			Estado:              celda(fila, cols[1]),
			CentroCostoPrevired: celda(fila, cols[2]),
		}
		if u.CentroCostoPrevired == "" {
			continue
		}
		unidades = append(unidades, u)
	}
	return unidades, nil
}

// CargarBanco reads the Santander transfer template. Rows are returned as
// found; filtering rows without a destination account is the indexer's
// job, so the loader stays a faithful reader.
func (l *Loader) CargarBanco() ([]master.BankRecord, error) {
	filas, err := leerHoja(l.SantanderPath)
	if err != nil {
		return nil, err
	}
	cols, err := buscarColumnas(filas,
		"rut beneficiario",
		"nombre beneficiario",
		"banco destino",
		"tipo de cuenta destino",
		"número de cuenta destino",
		"correo beneficiario",
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.SantanderPath, err)
	}

	var registros []master.BankRecord
	for _, fila := range filas[1:] {
		b := master.BankRecord{
			RutBeneficiario:    celda(fila, cols[0]),
			NombreBeneficiario: celda(fila, cols[1]),
			BancoDestino:       celda(fila, cols[2]),
			TipoCuenta:         celda(fila, cols[3]),
			CuentaDestino:      celda(fila, cols[4]),
			Correo:             celda(fila, cols[5]),
		}
		if b.RutBeneficiario == "" && b.NombreBeneficiario == "" {
			continue
		}
		registros = append(registros, b)
	}
	return registros, nil
}

func leerHoja(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("abrir %s: %w", path, err)
	}
	defer f.Close()

	hojas := f.GetSheetList()
	if len(hojas) == 0 {
		return nil, fmt.Errorf("%s: libro sin hojas", path)
	}
	filas, err := f.GetRows(hojas[0])
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", path, err)
	}
	if len(filas) == 0 {
		return nil, fmt.Errorf("%s: hoja %s sin encabezado", path, hojas[0])
	}
	return filas, nil
}

// buscarColumnas resolves each wanted header to its column index. The
// template headers embed line breaks and mandatory-field annotations, so
// matching is by normalized prefix.
func buscarColumnas(filas [][]string, nombres ...string) ([]int, error) {
	encabezado := filas[0]
	indices := make([]int, len(nombres))
	for i, nombre := range nombres {
		indices[i] = -1
		for col, titulo := range encabezado {
			if normalizar(titulo) == nombre {
				indices[i] = col
				break
			}
		}
		if indices[i] == -1 {
			for col, titulo := range encabezado {
				if strings.HasPrefix(normalizar(titulo), nombre) {
					indices[i] = col
					break
				}
			}
		}
		if indices[i] == -1 {
			return nil, fmt.Errorf("columna %q no encontrada (encabezados: %v)", nombre, encabezado)
		}
	}
	return indices, nil
}

func normalizar(titulo string) string {
	return strings.ToLower(strings.Join(strings.Fields(titulo), " "))
}

func celda(fila []string, col int) string {
	if col >= len(fila) {
		return ""
	}
	return strings.TrimSpace(fila[col])
}
