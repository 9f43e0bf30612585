package entity

import "github.com/shopspring/decimal"

// JournalLine is one side of a double-entry posting.
type JournalLine struct {
	Account string          `json:"account"`
	Memo    string          `json:"memo,omitempty"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
}

// JournalProposal is an unposted, balanced double-entry draft.
// The journal number is generated at draft time and is not guaranteed
// globally unique until the ledger accepts it.
type JournalProposal struct {
	JournalNo string        `json:"journal_no"`
	Date      string        `json:"date"` // YYYY-MM-DD
	Reference string        `json:"reference,omitempty"`
	Memo      string        `json:"memo,omitempty"`
	Currency  string        `json:"currency"`
	Lines     []JournalLine `json:"lines"`
}

// Balanced reports whether debits equal credits. An empty-line proposal
// counts as balanced.
func (p JournalProposal) Balanced() bool {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, l := range p.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit.Equal(credit)
}

// StockMoveProposal is a draft stock receipt derived from one
// inventory-bearing line item.
type StockMoveProposal struct {
	MoveNo    string          `json:"move_no"`
	ItemNo    string          `json:"item_no"`
	Date      string          `json:"date"`
	SKU       string          `json:"sku"`
	Quantity  decimal.Decimal `json:"qty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Origin    string          `json:"origin,omitempty"`    // supplier name as pseudo-origin code
	Warehouse string          `json:"warehouse"`           // destination
	Memo      string          `json:"memo,omitempty"`
	Status    string          `json:"status"`              // "approved": evidenced by a document
}

// Proposal bundles the accounting artifacts derived from one document.
type Proposal struct {
	Journal    JournalProposal     `json:"journal"`
	StockMoves []StockMoveProposal `json:"stock_moves,omitempty"`
}
