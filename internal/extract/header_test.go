package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceText = `Nordisk Utstyr AS
Industriveien 12, 0581 Oslo
Org.nr: NO 912 345 678 MVA
Tlf: +47 22 33 44 55
post@nordiskutstyr.no

Faktura
Fakturanr: 2024-0042
Fakturadato: 05.03.2024
Ordrenr: 7781
Sum eks. mva 100,00 kr
MVA 25% 25,00 kr
Å betale 125,00 kr
`

func TestParseHeaderInvoice(t *testing.T) {
	p := NewParser("NOK", nil)
	h := p.ParseHeader(invoiceText)

	assert.Equal(t, "Nordisk Utstyr AS", h.Supplier.Name)
	assert.Equal(t, "Industriveien 12, 0581 Oslo", h.Supplier.Address)
	assert.Equal(t, "NO 912 345 678 MVA", h.Supplier.TaxID)
	assert.Equal(t, "post@nordiskutstyr.no", h.Supplier.Email)
	assert.Equal(t, "+47 22 33 44 55", h.Supplier.Phone)

	assert.Equal(t, "2024-0042", h.Numbers.InvoiceNo)
	assert.Equal(t, "7781", h.Numbers.OrderNo)
	assert.Equal(t, "2024-03-05", h.Date)
	assert.Equal(t, "NOK", h.Currency)

	require.NotNil(t, h.Totals.Subtotal)
	require.NotNil(t, h.Totals.TotalInclusive)
	assert.Equal(t, 100.0, *h.Totals.Subtotal)
	assert.Equal(t, 125.0, *h.Totals.TotalInclusive)
}

func TestParseHeaderSupplierSkipsLabelRows(t *testing.T) {
	p := NewParser("NOK", nil)

	// a bare receipt has no supplier line; the tax and total rows must
	// not be picked up in its place
	h := p.ParseHeader("Kvittering\nMVA 25%: 20,00\nÅ betale: 120,00\n")
	assert.Empty(t, h.Supplier.Name)
	require.NotNil(t, h.Totals.TotalInclusive)
	assert.Equal(t, 120.0, *h.Totals.TotalInclusive)
}

func TestParseHeaderExplicitCurrencyWins(t *testing.T) {
	p := NewParser("NOK", nil)

	h := p.ParseHeader("Invoice no: INV-77\nTotal due: 99.50 EUR\n")
	assert.Equal(t, "EUR", h.Currency)
	assert.Equal(t, "INV-77", h.Numbers.InvoiceNo)
}

func TestParseHeaderPurchaseOrderNotMistakenForOrder(t *testing.T) {
	p := NewParser("NOK", nil)

	h := p.ParseHeader("Purchase order no: PO-991\n")
	assert.Equal(t, "PO-991", h.Numbers.PONo)
	assert.Empty(t, h.Numbers.OrderNo)
}

func TestParseHeaderTwoDigitYearPivot(t *testing.T) {
	p := NewParser("NOK", nil)

	h := p.ParseHeader("Dato: 05/03/24\n")
	assert.Equal(t, "2024-03-05", h.Date)

	h = p.ParseHeader("Dato: 05.03.78\n")
	assert.Equal(t, "1978-03-05", h.Date)
}

func TestParseHeaderEmptyText(t *testing.T) {
	p := NewParser("NOK", nil)

	h := p.ParseHeader("")
	assert.Empty(t, h.Supplier.Name)
	assert.Empty(t, h.Numbers.InvoiceNo)
	assert.Empty(t, h.Date)
	assert.Equal(t, "NOK", h.Currency)
	assert.Nil(t, h.Totals.TotalInclusive)
}
