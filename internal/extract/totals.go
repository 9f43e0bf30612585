package extract

import (
	"math"
	"regexp"

	"github.com/nordbok/invoice-ingest/internal/entity"
	"github.com/nordbok/invoice-ingest/internal/locale"
)

// amountTail matches a label-anchored monetary figure at the end of a
// line, tolerating spaced thousands groups and a trailing currency hint.
const amountTail = `\D*?(\d[\d .,]*\d|\d)\s*(?:kr|,-|NOK|USD|EUR|GBP|SEK|DKK)?\.?\s*$`

var (
	reExclLabel = regexp.MustCompile(`(?i)\b(?:sum\s+eks(?:kl)?\.?\s*(?:mva|moms)|eks(?:kl)?\.?\s*(?:mva|moms)|excl(?:uding)?\.?\s*(?:vat|tax)|sub\s*total|subtotal|netto(?:bel[øo]p)?|net\s+amount)\b` + amountTail)
	// anchored on start-of-line or whitespace rather than \b: Go's word
	// boundary is ASCII-only and never fires ahead of "å"
	reInclLabel = regexp.MustCompile(`(?i)(?:^|\s)(?:sum\s+ink(?:l)?\.?\s*(?:mva|moms)|ink(?:l)?\.?\s*(?:mva|moms)|incl(?:uding)?\.?\s*(?:vat|tax)|[åa]\s+betale|til\s+betaling|amount\s+due|total\s+due|grand\s+total)\b` + amountTail)
	reTaxLabel  = regexp.MustCompile(`(?i)\b(?:herav\s+)?(?:mva|moms|vat|tax)\b[^%\d\n]*(?:\d{1,2}(?:[.,]\d+)?\s*%)?` + amountTail)

	// last-resort total marker when no explicit inclusive label exists
	reGenericTotal = regexp.MustCompile(`(?i)\b(?:totalt?|sum|total[bs]el[øo]p)\b` + amountTail)
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func labeledAmount(re *regexp.Regexp, line string) *float64 {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	v := locale.ParseAmount(m[1])
	return &v
}

// ReconcileTotals pulls the labeled subtotal, tax and inclusive total out
// of the text and derives whichever of the three is missing. The
// inclusive total is never left nil when any total-like figure was seen.
func (p *Parser) ReconcileTotals(text string) entity.Totals {
	var t entity.Totals
	for _, ln := range splitLines(text) {
		switch {
		case reExclLabel.MatchString(ln):
			if t.Subtotal == nil {
				t.Subtotal = labeledAmount(reExclLabel, ln)
			}
		case reInclLabel.MatchString(ln):
			if t.TotalInclusive == nil {
				t.TotalInclusive = labeledAmount(reInclLabel, ln)
			}
		case reTaxLabel.MatchString(ln):
			if t.Tax == nil {
				t.Tax = labeledAmount(reTaxLabel, ln)
			}
		}
	}

	if t.TotalInclusive == nil && t.Subtotal != nil && t.Tax != nil {
		v := round2(*t.Subtotal + *t.Tax)
		t.TotalInclusive = &v
	}
	if t.Subtotal == nil && t.TotalInclusive != nil && t.Tax != nil {
		v := round2(*t.TotalInclusive - *t.Tax)
		t.Subtotal = &v
	}
	if t.Tax == nil && t.TotalInclusive != nil && t.Subtotal != nil {
		v := round2(*t.TotalInclusive - *t.Subtotal)
		t.Tax = &v
	}

	if t.TotalInclusive == nil {
		for _, ln := range splitLines(text) {
			if v := labeledAmount(reGenericTotal, ln); v != nil {
				t.TotalInclusive = v
				break
			}
		}
	}
	if t.TotalInclusive == nil && t.Subtotal != nil {
		v := *t.Subtotal
		if t.Tax != nil {
			v = round2(v + *t.Tax)
		}
		t.TotalInclusive = &v
	}
	return t
}
