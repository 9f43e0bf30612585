// Package proposal derives the accounting artifacts from an extraction:
// a balanced double-entry journal draft and stock-move drafts for
// inventory-bearing lines. The builder is deterministic apart from the
// generated draft numbers.
package proposal

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nordbok/invoice-ingest/constants"
	"github.com/nordbok/invoice-ingest/internal/entity"
)

type Config struct {
	PayableAccount   string // credited for the full document total
	InventoryAccount string
	ExpenseAccount   string
	Warehouse        string // destination for stock receipts
}

type Builder struct {
	cfg    Config
	seq    Sequencer
	logger *slog.Logger
}

func NewBuilder(cfg Config, seq Sequencer, logger *slog.Logger) *Builder {
	if cfg.PayableAccount == "" {
		cfg.PayableAccount = "2400"
	}
	if cfg.InventoryAccount == "" {
		cfg.InventoryAccount = "1460"
	}
	if cfg.ExpenseAccount == "" {
		cfg.ExpenseAccount = "4300"
	}
	if cfg.Warehouse == "" {
		cfg.Warehouse = "MAIN"
	}
	if seq == nil {
		seq = NewSequencer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, seq: seq, logger: logger}
}

// subject words that mark a whole document as goods even when line
// items carry no SKU
var inventoryHints = []string{"hardware", "equipment", "utstyr", "varer", "lager"}

func subjectSuggestsInventory(subject string) bool {
	lower := strings.ToLower(subject)
	for _, h := range inventoryHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func (b *Builder) inventoryBearing(ln entity.ExtractedLine, subjectInventory bool) bool {
	if len(ln.SKU) >= 3 {
		return true
	}
	if ln.Category == string(constants.Inventory) {
		return true
	}
	return subjectInventory && ln.Category != string(constants.Service)
}

// Build turns an extracted header and lines into a journal draft plus
// stock moves. The journal always gets a number, even when there is
// nothing to post; the credit side equals the sum of debits so the
// result balances by construction.
func (b *Builder) Build(header entity.ExtractedHeader, lines []entity.ExtractedLine, subjectHint string) entity.Proposal {
	date := header.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	subjectInventory := subjectSuggestsInventory(subjectHint)

	invDebit := decimal.Zero
	expDebit := decimal.Zero
	for _, ln := range lines {
		amt := decimal.NewFromFloat(ln.LineTotal).Round(2)
		if amt.Sign() == 0 {
			continue
		}
		if b.inventoryBearing(ln, subjectInventory) {
			invDebit = invDebit.Add(amt)
		} else {
			expDebit = expDebit.Add(amt)
		}
	}
	if invDebit.Add(expDebit).Sign() <= 0 && header.Totals.TotalInclusive != nil {
		invDebit = decimal.Zero
		expDebit = decimal.NewFromFloat(*header.Totals.TotalInclusive).Round(2)
	}
	total := invDebit.Add(expDebit)

	journal := entity.JournalProposal{
		JournalNo: b.seq.Next("JRN"),
		Date:      date,
		Reference: header.Numbers.InvoiceNo,
		Memo:      journalMemo(header, subjectHint),
		Currency:  header.Currency,
	}
	if total.Sign() > 0 {
		if invDebit.Sign() != 0 {
			journal.Lines = append(journal.Lines, entity.JournalLine{
				Account: b.cfg.InventoryAccount,
				Memo:    "Goods received",
				Debit:   invDebit,
			})
		}
		if expDebit.Sign() != 0 {
			journal.Lines = append(journal.Lines, entity.JournalLine{
				Account: b.cfg.ExpenseAccount,
				Memo:    "Purchases",
				Debit:   expDebit,
			})
		}
		journal.Lines = append(journal.Lines, entity.JournalLine{
			Account: b.cfg.PayableAccount,
			Memo:    journalMemo(header, subjectHint),
			Credit:  total,
		})
	}

	moves := b.stockMoves(header, lines, date, subjectInventory)

	b.logger.Debug("proposal.build.done",
		"journal_no", journal.JournalNo,
		"total", total.String(),
		"journal_lines", len(journal.Lines),
		"stock_moves", len(moves),
	)
	return entity.Proposal{Journal: journal, StockMoves: moves}
}

func (b *Builder) stockMoves(header entity.ExtractedHeader, lines []entity.ExtractedLine, date string, subjectInventory bool) []entity.StockMoveProposal {
	var moves []entity.StockMoveProposal
	for _, ln := range lines {
		if !b.inventoryBearing(ln, subjectInventory) {
			continue
		}
		qty := decimal.NewFromFloat(ln.Quantity)
		total := decimal.NewFromFloat(ln.LineTotal).Round(2)
		if qty.Sign() <= 0 && total.Sign() <= 0 {
			continue
		}

		if qty.Sign() <= 0 {
			qty = decimal.NewFromInt(1)
		}
		unitCost := decimal.NewFromFloat(ln.UnitPrice).Round(2)
		if total.Sign() > 0 {
			unitCost = total.Div(qty).Round(2)
		}

		moves = append(moves, entity.StockMoveProposal{
			MoveNo:    b.seq.Next("MOV"),
			ItemNo:    itemNumber(ln),
			Date:      date,
			SKU:       ln.SKU,
			Quantity:  qty,
			UnitCost:  unitCost,
			Origin:    header.Supplier.Name,
			Warehouse: b.cfg.Warehouse,
			Memo:      ln.Description,
			Status:    "approved",
		})
	}
	return moves
}

func journalMemo(header entity.ExtractedHeader, subjectHint string) string {
	if header.Supplier.Name != "" {
		return header.Supplier.Name
	}
	return subjectHint
}

// itemNumber derives a stable item code from the SKU, or from the
// description when the line has none.
func itemNumber(ln entity.ExtractedLine) string {
	src := ln.SKU
	if src == "" {
		src = ln.Description
	}
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToUpper(src) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
		if b.Len() >= 20 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
