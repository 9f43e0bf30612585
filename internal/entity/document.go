package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/nordbok/invoice-ingest/constants"
)

// SourceMeta records where a document came from. MessageID is the
// dedup key: a mail Message-Id, or a synthetic id for manual entry.
type SourceMeta struct {
	Subject    string    `json:"subject,omitempty"`
	From       string    `json:"from,omitempty"`
	MessageID  string    `json:"message_id"`
	Files      []string  `json:"files,omitempty"` // stored file paths
	ReceivedAt time.Time `json:"received_at"`
}

// Links holds downstream identifiers once the proposal has been routed.
type Links struct {
	JournalID    string   `json:"journal_id,omitempty"`
	StockMoveIDs []string `json:"stock_move_ids,omitempty"`
}

// IngestedDocument is the unit of work flowing through the pipeline.
// The docflow controller exclusively owns status transitions; other
// components only produce snapshots that the controller merges in.
type IngestedDocument struct {
	ID        uuid.UUID           `json:"id"`
	Status    constants.DocStatus `json:"status"`
	Source    SourceMeta          `json:"source"`
	Extracted *Extraction         `json:"extracted,omitempty"`
	Proposal  *Proposal           `json:"proposal,omitempty"`
	Links     Links               `json:"links"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}
