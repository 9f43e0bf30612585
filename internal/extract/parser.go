// Package extract turns raw document text into a structured invoice
// header and line items. Every function here is total: bad input yields
// empty or zero values, never an error. This layer produces signals for
// the proposal builder, not a source of truth.
package extract

import (
	"log/slog"
	"strings"
)

type Parser struct {
	HomeCurrency string
	logger       *slog.Logger
}

func NewParser(homeCurrency string, logger *slog.Logger) *Parser {
	if homeCurrency == "" {
		homeCurrency = "NOK"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{HomeCurrency: homeCurrency, logger: logger}
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, ln := range raw {
		lines = append(lines, strings.TrimSpace(ln))
	}
	return lines
}
