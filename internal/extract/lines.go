package extract

import (
	"regexp"
	"strings"

	"github.com/nordbok/invoice-ingest/constants"
	"github.com/nordbok/invoice-ingest/internal/entity"
	"github.com/nordbok/invoice-ingest/internal/locale"
)

// maxParsedLines bounds the damage a noisy OCR result can do downstream.
const maxParsedLines = 50

const (
	lineAmount = `\d+(?:[.,]\d+)*`
	lineQty    = `\d+(?:[.,]\d+)?`
	// descriptions must end on a non-numeric rune so a trailing figure is
	// never swallowed into the text column
	lineDesc = `(.+?[^\d.,:])`
)

var (
	// SKU DESC QTY UNIT TOTAL
	reLineSKU = regexp.MustCompile(`^([A-Za-z0-9/\-_]*\d[A-Za-z0-9/\-_]*)\s+` + lineDesc + `\s+(` + lineQty + `)\s+(` + lineAmount + `)\s+(` + lineAmount + `)$`)
	// DESC QTY x UNIT [= TOTAL]
	reLineQtyX = regexp.MustCompile(`^` + lineDesc + `\s+(` + lineQty + `)\s*[xX*]\s*(` + lineAmount + `)(?:\s*=?\s*(` + lineAmount + `))?\s*(?:kr|,-)?\s*$`)
	// DESC UNIT x QTY TOTAL
	reLinePriceX = regexp.MustCompile(`^` + lineDesc + `\s+(` + lineAmount + `)\s*[xX*]\s*(` + lineQty + `)\s+(` + lineAmount + `)\s*(?:kr|,-)?\s*$`)
	// DESC AMOUNT, description long enough to be a real text column
	reLineGeneric = regexp.MustCompile(`^(\D.{6,78}?[^\d.,:])\s+(` + lineAmount + `)\s*(?:kr|,-)?\s*$`)

	reServiceHint = regexp.MustCompile(`(?i)\b(?:frakt|porto|shipping|freight|delivery|gebyr|fee|service|labou?r|arbeid|timer?)\b`)
)

// skipLine filters out label rows that would otherwise parse as generic
// description-amount items.
func skipLine(ln string) bool {
	return reExclLabel.MatchString(ln) || reInclLabel.MatchString(ln) ||
		reTaxLabel.MatchString(ln) || reGenericTotal.MatchString(ln) ||
		reDateLabeled.MatchString(ln) || reTaxID.MatchString(ln) ||
		reInvoiceNo.MatchString(ln) || rePONo.MatchString(ln) || reOrderNo.MatchString(ln)
}

// ParseLines walks the text line by line, trying the table patterns from
// most to least specific. When nothing parses but the document carries a
// total, a single synthetic line keeps the downstream proposal non-empty.
func (p *Parser) ParseLines(text string) []entity.ExtractedLine {
	var out []entity.ExtractedLine
	for _, ln := range splitLines(text) {
		if len(out) >= maxParsedLines {
			break
		}
		if ln == "" || skipLine(ln) {
			continue
		}
		if item, ok := parseTableLine(ln); ok {
			out = append(out, item)
		}
	}

	if len(out) == 0 {
		if tot := p.ReconcileTotals(text); tot.TotalInclusive != nil && *tot.TotalInclusive > 0 {
			p.logger.Debug("extract.lines.synthesized", "total", *tot.TotalInclusive)
			out = append(out, syntheticTotalLine(*tot.TotalInclusive))
		}
	}
	return out
}

func parseTableLine(ln string) (entity.ExtractedLine, bool) {
	if m := reLineSKU.FindStringSubmatch(ln); m != nil {
		qty := locale.ParseAmount(m[3])
		unit := locale.ParseAmount(m[4])
		total := locale.ParseAmount(m[5])
		return buildLine(m[1], m[2], qty, unit, total, constants.Inventory), true
	}
	if m := reLineQtyX.FindStringSubmatch(ln); m != nil {
		qty := locale.ParseAmount(m[2])
		unit := locale.ParseAmount(m[3])
		total := qty * unit
		if m[4] != "" {
			total = locale.ParseAmount(m[4])
		}
		return buildLine("", m[1], qty, unit, total, classifyText(m[1])), true
	}
	if m := reLinePriceX.FindStringSubmatch(ln); m != nil {
		unit := locale.ParseAmount(m[2])
		qty := locale.ParseAmount(m[3])
		total := locale.ParseAmount(m[4])
		return buildLine("", m[1], qty, unit, total, classifyText(m[1])), true
	}
	if m := reLineGeneric.FindStringSubmatch(ln); m != nil {
		amount := locale.ParseAmount(m[2])
		return buildLine("", m[1], 1, amount, amount, classifyText(m[1])), true
	}
	return entity.ExtractedLine{}, false
}

func classifyText(desc string) constants.Category {
	if reServiceHint.MatchString(desc) {
		return constants.Service
	}
	return constants.Expense
}

func buildLine(sku, desc string, qty, unit, total float64, cat constants.Category) entity.ExtractedLine {
	net := round2(total)
	line := entity.ExtractedLine{
		SKU:         strings.TrimSpace(sku),
		Description: strings.TrimSpace(desc),
		Quantity:    qty,
		UOM:         constants.DefaultUOM(cat),
		UnitPrice:   unit,
		NetAmount:   net,
		LineTotal:   round2(total),
		Category:    string(cat),
	}
	return line
}

func syntheticTotalLine(total float64) entity.ExtractedLine {
	cat := constants.Expense
	return entity.ExtractedLine{
		Description: "Receipt total",
		Quantity:    1,
		UOM:         constants.DefaultUOM(cat),
		UnitPrice:   round2(total),
		NetAmount:   round2(total),
		LineTotal:   round2(total),
		Category:    string(cat),
	}
}
