package extract

import (
	"regexp"
	"strings"

	"github.com/nordbok/invoice-ingest/internal/entity"
	"github.com/nordbok/invoice-ingest/internal/locale"
)

const (
	supplierScanLines = 15
	contactScanLines  = 30
)

// numberToken is a label-anchored reference: letters, digits, dashes and
// slashes, containing at least one digit.
const numberToken = `[^\S\n]*(?:no\.?|number|nr\.?|#)?[.:#]?[^\S\n]*([A-Za-z0-9/\-]*\d[A-Za-z0-9/\-]*)`

var (
	reCurrencyCode = regexp.MustCompile(`\b(NOK|USD|EUR|GBP|SEK|DKK)\b`)
	reKroneMarker  = regexp.MustCompile(`(?i)\bkr\b|,-`)

	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	rePhone = regexp.MustCompile(`(?i)(?:tlf|tel|phone|telefon)[.:\s]*((?:\+\d{1,3}[ \-]?)?\d[\d \-]{6,14}\d)`)
	reTaxID = regexp.MustCompile(`(?i)(?:org\.?\s*nr\.?|organisasjonsnummer|vat\s*(?:no|nr|number)|tax\s*id)[.:\s]*([A-Z]{0,2}\s?\d[\d ]{6,13}\d(?:\s?MVA)?)`)

	reInvoiceNo = regexp.MustCompile(`(?i)\b(?:faktura(?:nr|nummer)?|invoice)\b` + numberToken)
	reOrderNo   = regexp.MustCompile(`(?i)\b(?:ordre(?:nr|nummer)?|order)\b` + numberToken)
	rePONo      = regexp.MustCompile(`(?i)\b(?:po|purchase\s+order|innkj[øo]psordre)\b` + numberToken)
	reJENo      = regexp.MustCompile(`(?i)\b(?:bilag(?:snr|snummer)?|journal(?:\s+entry)?|voucher)\b` + numberToken)

	reDateToken   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}[./-]\d{1,2}[./-]\d{2,4})\b`)
	reDateLabeled = regexp.MustCompile(`(?i)\b(?:fakturadato|dato|invoice\s+date|date)\b[.:]?[^\S\n]*(\d{4}-\d{2}-\d{2}|\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`)

	reBannerLine = regexp.MustCompile(`(?i)^(?:faktura|invoice|kvittering|receipt|regning|bilag|purring|kreditnota|credit\s+note)\b`)
	reHasLetter  = regexp.MustCompile(`[A-Za-zÆØÅæøå]`)
)

// ParseHeader runs every header heuristic over the text. Fields that
// cannot be found stay empty; totals are reconciled separately so the
// caller gets a derived inclusive total whenever one figure exists.
func (p *Parser) ParseHeader(text string) entity.ExtractedHeader {
	lines := splitLines(text)
	h := entity.ExtractedHeader{
		Currency: p.detectCurrency(text),
		Totals:   p.ReconcileTotals(text),
	}

	h.Supplier = p.parseSupplier(lines)
	h.Numbers = parseNumbers(lines)
	h.Date = parseDate(text)

	p.logger.Debug("extract.header.done",
		"supplier", h.Supplier.Name,
		"invoice_no", h.Numbers.InvoiceNo,
		"date", h.Date,
		"currency", h.Currency)
	return h
}

// detectCurrency prefers an explicit ISO code; a bare krone marker or
// nothing at all falls back to the home currency.
func (p *Parser) detectCurrency(text string) string {
	if m := reCurrencyCode.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return p.HomeCurrency
}

func (p *Parser) parseSupplier(lines []string) entity.Supplier {
	var s entity.Supplier

	nameAt := -1
	for i, ln := range lines {
		if i >= supplierScanLines {
			break
		}
		if len(ln) < 3 || !reHasLetter.MatchString(ln) {
			continue
		}
		if reBannerLine.MatchString(ln) || reTaxID.MatchString(ln) {
			continue
		}
		// total and tax label rows are never the supplier name
		if skipLine(ln) {
			continue
		}
		if reDateToken.MatchString(ln) && len(reDateToken.FindString(ln)) >= len(ln)-4 {
			continue
		}
		if reEmail.MatchString(ln) || rePhone.MatchString(ln) {
			continue
		}
		s.Name = ln
		nameAt = i
		break
	}

	// the line right under the name often carries the street address
	if nameAt >= 0 && nameAt+1 < len(lines) {
		next := lines[nameAt+1]
		if reHasLetter.MatchString(next) && strings.IndexFunc(next, isDigit) >= 0 &&
			!reEmail.MatchString(next) && !rePhone.MatchString(next) && !reTaxID.MatchString(next) &&
			!reDateToken.MatchString(next) {
			s.Address = next
		}
	}

	for i, ln := range lines {
		if i >= contactScanLines {
			break
		}
		if s.Email == "" {
			s.Email = reEmail.FindString(ln)
		}
		if s.Phone == "" {
			if m := rePhone.FindStringSubmatch(ln); m != nil {
				s.Phone = strings.TrimSpace(m[1])
			}
		}
		if s.TaxID == "" {
			if m := reTaxID.FindStringSubmatch(ln); m != nil {
				s.TaxID = strings.TrimSpace(m[1])
			}
		}
	}
	return s
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func parseNumbers(lines []string) entity.DocumentNumbers {
	var n entity.DocumentNumbers
	for _, ln := range lines {
		if n.InvoiceNo == "" {
			if m := reInvoiceNo.FindStringSubmatch(ln); m != nil {
				n.InvoiceNo = m[1]
			}
		}
		if n.PONo == "" {
			if m := rePONo.FindStringSubmatch(ln); m != nil {
				n.PONo = m[1]
			}
		}
		if n.OrderNo == "" && !rePONo.MatchString(ln) {
			if m := reOrderNo.FindStringSubmatch(ln); m != nil {
				n.OrderNo = m[1]
			}
		}
		if n.JENumber == "" {
			if m := reJENo.FindStringSubmatch(ln); m != nil {
				n.JENumber = m[1]
			}
		}
	}
	return n
}

// parseDate prefers a labeled date over the first date-shaped token.
func parseDate(text string) string {
	if m := reDateLabeled.FindStringSubmatch(text); m != nil {
		if d := locale.ParseDate(m[1]); d != "" {
			return d
		}
	}
	for _, m := range reDateToken.FindAllStringSubmatch(text, 5) {
		if d := locale.ParseDate(m[1]); d != "" {
			return d
		}
	}
	return ""
}
