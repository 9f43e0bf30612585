package entity

// Supplier identifies the counterparty on an invoice. Empty fields mean
// the signal was not found in the text.
type Supplier struct {
	Name    string `json:"name,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// DocumentNumbers holds the label-anchored identifiers found on a document.
type DocumentNumbers struct {
	InvoiceNo string `json:"invoice_no,omitempty"`
	OrderNo   string `json:"order_no,omitempty"`
	PONo      string `json:"po_no,omitempty"`
	JENumber  string `json:"je_number,omitempty"`
}

// Totals carries the reconciled monetary figures of a document.
// Nil means the figure was never seen in the text.
type Totals struct {
	Subtotal       *float64 `json:"subtotal,omitempty"`
	Tax            *float64 `json:"tax,omitempty"`
	TotalInclusive *float64 `json:"total_inclusive,omitempty"`
}

// ExtractedHeader is the structured header produced by heuristic or
// LLM-normalized extraction.
type ExtractedHeader struct {
	Supplier Supplier        `json:"supplier"`
	Numbers  DocumentNumbers `json:"numbers"`
	Date     string          `json:"date,omitempty"` // YYYY-MM-DD, empty when unknown
	Currency string          `json:"currency"`
	Totals   Totals          `json:"totals"`
}

// ExtractedLine is a single parsed line item.
type ExtractedLine struct {
	SKU         string   `json:"sku,omitempty"`
	Description string   `json:"description"`
	Quantity    float64  `json:"qty"`
	UOM         string   `json:"uom,omitempty"`
	UnitPrice   float64  `json:"unit_price"`
	TaxRate     *float64 `json:"tax_rate,omitempty"` // percent
	TaxAmount   float64  `json:"tax_amount,omitempty"`
	NetAmount   float64  `json:"net_amount,omitempty"`
	LineTotal   float64  `json:"line_total"`
	Category    string   `json:"category,omitempty"` // inventory | expense | service
}

// Extraction is the immutable snapshot merged into a document after the
// text-acquisition and parsing stages.
type Extraction struct {
	Header  ExtractedHeader `json:"header"`
	Lines   []ExtractedLine `json:"lines"`
	RawText string          `json:"raw_text,omitempty"` // aggregated, capped
}
