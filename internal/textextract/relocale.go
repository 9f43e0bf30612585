package textextract

import (
	"context"
	"strings"
	"unicode"
)

// Markers suggesting the document is in the secondary locale even though
// OCR ran without that language configured.
var secondaryMarkers = []string{"kvittering", "mva", "beløp", "belop", "faktura", "å betale", "totalt"}

const (
	secondaryLang = "nor"

	// a re-run is only accepted when it does not shrink the text below
	// this share of the original; protects against a degenerate re-run
	relocaleKeepRatio = 0.8
)

// strippedLen counts non-whitespace characters. It is the length-based
// proxy for "did the extraction produce anything usable".
func strippedLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

const emptyTextThreshold = 50

func looksEmpty(s string) bool {
	return strippedLen(s) < emptyTextThreshold
}

// needsSecondaryLang reports whether the text carries secondary-locale
// receipt markers while the configured language set lacks that language.
func needsSecondaryLang(text, langs string) bool {
	if strings.Contains(langs, secondaryLang) {
		return false
	}
	lower := strings.ToLower(text)
	for _, m := range secondaryMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// maybeRelocale re-runs OCR with the secondary language appended when the
// first pass looks like it was read with the wrong language set. The
// improved result is kept only if it is not meaningfully shorter.
func (e *Extractor) maybeRelocale(ctx context.Context, res Result, rerun func(ctx context.Context, langs string) (string, error)) Result {
	if !needsSecondaryLang(res.Text, res.Language) {
		return res
	}

	langs := res.Language + "+" + secondaryLang
	text, err := rerun(ctx, langs)
	if err != nil {
		e.logger.Warn("ocr.relocale.failed", "langs", langs, "error", err)
		res.Warnings = append(res.Warnings, "re-ocr with "+langs+" failed: "+err.Error())
		return res
	}
	if strippedLen(text) < int(float64(strippedLen(res.Text))*relocaleKeepRatio) {
		e.logger.Debug("ocr.relocale.rejected", "langs", langs, "old_len", len(res.Text), "new_len", len(text))
		return res
	}

	e.logger.Info("ocr.relocale.applied", "langs", langs, "old_len", len(res.Text), "new_len", len(text))
	res.Text = text
	res.Language = langs
	return res
}
