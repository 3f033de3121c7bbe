package cession

import (
	"regexp"
	"strings"
)

var (
	reBloque = regexp.MustCompile(`Folio N°\s*:\s*\d+`)

	reCesionario = regexp.MustCompile(`(?i)cesionario\s+([^,]+),\s*RUT\s*N°\s*(\d{7,9}-[0-9Kk])`)
	reCedente    = regexp.MustCompile(`(?i)por el cedente\s+([^,]+),\s*RUT\s*N°\s*(\d{7,9}-[0-9Kk])`)
	reDeudor     = regexp.MustCompile(`(?i)como deudor a\s+([^,]+),\s*RUT\s*N°\s*(\d{7,9}-[0-9Kk])`)

	reDocTabla   = regexp.MustCompile(`(\d{7,9}-[0-9Kk])\s+(\d+)`)
	reDocFactura = regexp.MustCompile(`FACTURA\s+ELECTRONICA\s+(\d{7,9}-[0-9Kk])\s+(\d+)`)
	reRutLinea   = regexp.MustCompile(`(\d{8,9}-[\dK])`)
	reFolioLinea = regexp.MustCompile(`\b(\d{2,4})\b`)
)

// Extract parses the plain text of a cession certificate bulletin into one
// record per ceded document. The bulletin concatenates certificate blocks
// separated by "Folio N°: <n>" headers; each block names the assignee,
// assignor and debtor once and lists the ceded documents in a free-form
// table. Text before the first header is cover-page noise and is skipped.
func Extract(texto string) []Record {
	var registros []Record
	for _, bloque := range partirBloques(texto) {
		registros = append(registros, extraerBloque(bloque)...)
	}
	return registros
}

func partirBloques(texto string) []string {
	idx := reBloque.FindAllStringIndex(texto, -1)
	var bloques []string
	for i, m := range idx {
		fin := len(texto)
		if i+1 < len(idx) {
			fin = idx[i+1][0]
		}
		bloques = append(bloques, texto[m[1]:fin])
	}
	return bloques
}

func extraerBloque(bloque string) []Record {
	base := Record{}
	if m := reCesionario.FindStringSubmatch(bloque); m != nil {
		base.Cesionario = strings.TrimSpace(m[1])
		base.RutCesionario = m[2]
	}
	if m := reCedente.FindStringSubmatch(bloque); m != nil {
		base.Cedente = strings.TrimSpace(m[1])
		base.RutCedente = m[2]
	}
	if m := reDeudor.FindStringSubmatch(bloque); m != nil {
		base.Deudor = strings.TrimSpace(m[1])
		base.RutDeudor = m[2]
	}

	docs := extraerDocumentos(bloque)
	if len(docs) == 0 {
		// Keep a record without document reference so the block does not
		// vanish from the uncrossed-cessions report.
		return []Record{base}
	}

	registros := make([]Record, 0, len(docs))
	for _, d := range docs {
		r := base
		rut, folio := d[0], d[1]
		r.RutDocumento = &rut
		r.Folio = &folio
		registros = append(registros, r)
	}
	return registros
}

// extraerDocumentos tries progressively looser strategies against the
// ceded-document table of a block: a RUT followed by a folio anywhere in
// the block, then the same pair prefixed by the document type, then a
// per-line scan of rows that mention an electronic invoice.
func extraerDocumentos(bloque string) [][2]string {
	if docs := matchesDoc(reDocTabla, bloque); len(docs) > 0 {
		return docs
	}
	if docs := matchesDoc(reDocFactura, bloque); len(docs) > 0 {
		return docs
	}

	var docs [][2]string
	for _, linea := range strings.Split(bloque, "\n") {
		if !strings.Contains(linea, "FACTURA") || !strings.Contains(linea, "ELECTRONICA") {
			continue
		}
		rut := reRutLinea.FindString(linea)
		folio := reFolioLinea.FindString(linea)
		if rut != "" && folio != "" {
			docs = append(docs, [2]string{rut, folio})
		}
	}
	return docs
}

func matchesDoc(re *regexp.Regexp, texto string) [][2]string {
	var docs [][2]string
	for _, m := range re.FindAllStringSubmatch(texto, -1) {
		docs = append(docs, [2]string{m[1], m[2]})
	}
	return docs
}
