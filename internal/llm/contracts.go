package llm

import (
	"context"

	"github.com/nordbok/invoice-ingest/internal/entity"
)

// HeaderFields is the normalized invoice header shape we want back.
// Money fields are decimal strings so the model cannot hand us floats.
type HeaderFields struct {
	SupplierName string `json:"supplier_name,omitempty"`
	TaxID        string `json:"tax_id,omitempty"`
	InvoiceNo    string `json:"invoice_no,omitempty"`
	OrderNo      string `json:"order_no,omitempty"`
	PONo         string `json:"po_no,omitempty"`
	JENumber     string `json:"je_number,omitempty"`
	Date         string `json:"date,omitempty"` // YYYY-MM-DD
	Currency     string `json:"currency"`       // ISO 4217
	Subtotal     string `json:"subtotal,omitempty"`
	Tax          string `json:"tax,omitempty"`
	Total        string `json:"total"`
}

type LineFields struct {
	SKU         string `json:"sku,omitempty"`
	Description string `json:"description"`
	Qty         string `json:"qty"`
	UOM         string `json:"uom"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
	TaxRate     string `json:"tax_rate,omitempty"`
	Category    string `json:"category,omitempty"`
}

type InvoiceFields struct {
	Header HeaderFields `json:"header"`
	Lines  []LineFields `json:"lines"`
}

// NormalizeRequest carries the raw text plus the heuristic draft; the
// draft anchors the model so it corrects rather than invents.
type NormalizeRequest struct {
	Text            string
	DraftHeader     entity.ExtractedHeader
	DraftLines      []entity.ExtractedLine
	DefaultCurrency string
	SubjectHint     string
}

// Normalizer is the interface the document pipeline depends on. A
// disabled implementation returns (nil, nil, nil) and the pipeline keeps
// the heuristic draft.
type Normalizer interface {
	Normalize(ctx context.Context, req NormalizeRequest) (*InvoiceFields, []byte /*rawJSON*/, error)
}
