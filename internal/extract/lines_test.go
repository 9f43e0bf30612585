package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLinesSKUTable(t *testing.T) {
	p := NewParser("NOK", nil)

	lines := p.ParseLines("ABC-123 Widget stor 2 50,00 100,00\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "ABC-123", lines[0].SKU)
	assert.Equal(t, "Widget stor", lines[0].Description)
	assert.Equal(t, 2.0, lines[0].Quantity)
	assert.Equal(t, 50.0, lines[0].UnitPrice)
	assert.Equal(t, 100.0, lines[0].LineTotal)
	assert.Equal(t, "inventory", lines[0].Category)
	assert.Equal(t, "pcs", lines[0].UOM)
}

func TestParseLinesQtyTimesUnit(t *testing.T) {
	p := NewParser("NOK", nil)

	lines := p.ParseLines("Kaffe latte 2 x 35,00 = 70,00\nTe kanne 3 x 10,00\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 70.0, lines[0].LineTotal)
	assert.Equal(t, 30.0, lines[1].LineTotal) // derived qty*unit
	assert.Equal(t, "expense", lines[0].Category)
	assert.Equal(t, "ea", lines[0].UOM)
}

func TestParseLinesUnitTimesQty(t *testing.T) {
	p := NewParser("NOK", nil)

	lines := p.ParseLines("Konsulentbistand 1.200,00 x 3 3.600,00\n")
	require.Len(t, lines, 1)
	assert.Equal(t, 1200.0, lines[0].UnitPrice)
	assert.Equal(t, 3.0, lines[0].Quantity)
	assert.Equal(t, 3600.0, lines[0].LineTotal)
}

func TestParseLinesGenericAmountWithServiceHint(t *testing.T) {
	p := NewParser("NOK", nil)

	lines := p.ParseLines("Frakt og levering 1 x 250,00\nParkering flyplass 120,00 kr\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "service", lines[0].Category)
	assert.Equal(t, "hrs", lines[0].UOM)
	assert.Equal(t, "expense", lines[1].Category)
	assert.Equal(t, 1.0, lines[1].Quantity)
	assert.Equal(t, 120.0, lines[1].LineTotal)
}

func TestParseLinesSkipsLabelRows(t *testing.T) {
	p := NewParser("NOK", nil)
	text := "Kaffe latte 2 x 35,00 = 70,00\nSum eks. mva 56,00\nMVA 25% 14,00\nTotalt 70,00\n"

	lines := p.ParseLines(text)
	require.Len(t, lines, 1)
	assert.Equal(t, "Kaffe latte", lines[0].Description)
}

func TestParseLinesSynthesizesReceiptTotal(t *testing.T) {
	p := NewParser("NOK", nil)

	lines := p.ParseLines("Kvittering\nTotalt 120,00\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "Receipt total", lines[0].Description)
	assert.Equal(t, 1.0, lines[0].Quantity)
	assert.Equal(t, 120.0, lines[0].LineTotal)
	assert.Equal(t, "expense", lines[0].Category)
}

func TestParseLinesNothingToSynthesize(t *testing.T) {
	p := NewParser("NOK", nil)
	assert.Empty(t, p.ParseLines("ingen tall her\n"))
}

func TestParseLinesCapped(t *testing.T) {
	p := NewParser("NOK", nil)

	var b strings.Builder
	for i := 0; i < 80; i++ {
		b.WriteString("Vare nummer tjue 2 x 10,00 = 20,00\n")
	}
	assert.Len(t, p.ParseLines(b.String()), maxParsedLines)
}
