// Package cession parses factoring cession certificates and models the
// extracted records.
package cession

// Record is one cession extracted from a certificate block. The document
// fields are nil when the block yielded no recognizable invoice reference,
// so an unparseable block is still visible downstream instead of silently
// dropped.
type Record struct {
	Cesionario    string  `json:"cesionario"`
	RutCesionario string  `json:"rutCesionario"`
	Cedente       string  `json:"cedente"`
	RutCedente    string  `json:"rutCedente"`
	Deudor        string  `json:"deudor"`
	RutDeudor     string  `json:"rutDeudor"`
	RutDocumento  *string `json:"rutDocumento"`
	Folio         *string `json:"folio"`
}

// HasDocument reports whether the record carries an invoice reference.
func (r Record) HasDocument() bool {
	return r.RutDocumento != nil && r.Folio != nil
}
