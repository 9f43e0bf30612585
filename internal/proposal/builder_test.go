package proposal

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordbok/invoice-ingest/internal/entity"
)

type fakeSeq struct{ n int }

func (s *fakeSeq) Next(kind string) string {
	s.n++
	return fmt.Sprintf("%s-%03d", kind, s.n)
}

func ptr(v float64) *float64 { return &v }

func testHeader() entity.ExtractedHeader {
	return entity.ExtractedHeader{
		Supplier: entity.Supplier{Name: "Nordisk Utstyr AS"},
		Numbers:  entity.DocumentNumbers{InvoiceNo: "2024-0042"},
		Date:     "2024-03-05",
		Currency: "NOK",
		Totals:   entity.Totals{TotalInclusive: ptr(350)},
	}
}

func TestBuildBalancedMixedJournal(t *testing.T) {
	b := NewBuilder(Config{}, &fakeSeq{}, nil)
	lines := []entity.ExtractedLine{
		{SKU: "ABC-123", Description: "Widget stor", Quantity: 2, UnitPrice: 50, LineTotal: 100, Category: "inventory"},
		{Description: "Frakt", Quantity: 1, UnitPrice: 250, LineTotal: 250, Category: "service"},
	}

	p := b.Build(testHeader(), lines, "")
	j := p.Journal
	assert.True(t, j.Balanced())
	assert.Equal(t, "JRN-001", j.JournalNo)
	assert.Equal(t, "2024-03-05", j.Date)
	assert.Equal(t, "2024-0042", j.Reference)
	assert.Equal(t, "NOK", j.Currency)

	require.Len(t, j.Lines, 3)
	assert.Equal(t, "1460", j.Lines[0].Account)
	assert.True(t, j.Lines[0].Debit.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "4300", j.Lines[1].Account)
	assert.True(t, j.Lines[1].Debit.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "2400", j.Lines[2].Account)
	assert.True(t, j.Lines[2].Credit.Equal(decimal.NewFromInt(350)))
}

func TestBuildStockMoveUnitCostFromLineTotal(t *testing.T) {
	b := NewBuilder(Config{Warehouse: "OSLO"}, &fakeSeq{}, nil)
	lines := []entity.ExtractedLine{
		// unit price disagrees with the line total; the total wins
		{SKU: "PMP-9", Description: "Pumpe", Quantity: 4, UnitPrice: 30, LineTotal: 100, Category: "inventory"},
	}

	p := b.Build(testHeader(), lines, "")
	require.Len(t, p.StockMoves, 1)
	m := p.StockMoves[0]
	assert.True(t, m.UnitCost.Equal(decimal.NewFromInt(25)), m.UnitCost.String())
	assert.True(t, m.Quantity.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "PMP-9", m.ItemNo)
	assert.Equal(t, "OSLO", m.Warehouse)
	assert.Equal(t, "Nordisk Utstyr AS", m.Origin)
	assert.Equal(t, "approved", m.Status)
}

func TestBuildQuantityDefaultsToOne(t *testing.T) {
	b := NewBuilder(Config{}, &fakeSeq{}, nil)
	lines := []entity.ExtractedLine{
		{SKU: "KBL-7", Description: "Kabel", LineTotal: 80, Category: "inventory"},
	}

	p := b.Build(testHeader(), lines, "")
	require.Len(t, p.StockMoves, 1)
	assert.True(t, p.StockMoves[0].Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, p.StockMoves[0].UnitCost.Equal(decimal.NewFromInt(80)))
}

func TestBuildSubjectHintMakesSkulessLinesInventory(t *testing.T) {
	b := NewBuilder(Config{}, &fakeSeq{}, nil)
	lines := []entity.ExtractedLine{
		{Description: "Skruer og bolter", Quantity: 10, LineTotal: 120, Category: "expense"},
	}

	p := b.Build(testHeader(), lines, "Utstyr til verksted")
	require.Len(t, p.Journal.Lines, 2)
	assert.Equal(t, "1460", p.Journal.Lines[0].Account)
	require.Len(t, p.StockMoves, 1)
	assert.Equal(t, "SKRUER-OG-BOLTER", p.StockMoves[0].ItemNo)
	assert.True(t, p.Journal.Balanced())
}

func TestBuildFallsBackToHeaderTotal(t *testing.T) {
	b := NewBuilder(Config{}, &fakeSeq{}, nil)

	p := b.Build(testHeader(), nil, "")
	j := p.Journal
	require.Len(t, j.Lines, 2)
	assert.Equal(t, "4300", j.Lines[0].Account)
	assert.True(t, j.Lines[0].Debit.Equal(decimal.NewFromInt(350)))
	assert.True(t, j.Balanced())
	assert.Empty(t, p.StockMoves)
}

func TestBuildNegativeLineSumFallsBackToHeaderTotal(t *testing.T) {
	b := NewBuilder(Config{}, &fakeSeq{}, nil)
	lines := []entity.ExtractedLine{
		// credit-note noise; the header total is still the authority
		{Description: "Kreditert vare", Quantity: 1, LineTotal: -40, Category: "expense"},
	}

	p := b.Build(testHeader(), lines, "")
	j := p.Journal
	require.Len(t, j.Lines, 2)
	assert.Equal(t, "4300", j.Lines[0].Account)
	assert.True(t, j.Lines[0].Debit.Equal(decimal.NewFromInt(350)))
	assert.True(t, j.Lines[1].Credit.Equal(decimal.NewFromInt(350)))
	assert.True(t, j.Balanced())
}

func TestBuildEmptyDocumentStillGetsJournalNumber(t *testing.T) {
	b := NewBuilder(Config{}, &fakeSeq{}, nil)
	h := entity.ExtractedHeader{Currency: "NOK"}

	p := b.Build(h, nil, "kvittering uten tall")
	assert.Equal(t, "JRN-001", p.Journal.JournalNo)
	assert.Empty(t, p.Journal.Lines)
	assert.True(t, p.Journal.Balanced())
	assert.NotEmpty(t, p.Journal.Date)
}
