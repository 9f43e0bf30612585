// Package ledger accepts approved proposals into the books. Posting is
// append-only: a routed journal gets a ledger id and the draft is never
// mutated afterwards.
package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordbok/invoice-ingest/internal/common"
	"github.com/nordbok/invoice-ingest/internal/entity"
)

// Router is the boundary between drafted proposals and the ledger
// tables. Implementations must reject unbalanced journals.
type Router interface {
	PostJournal(ctx context.Context, journal entity.JournalProposal) (string, error)
	CreateStockMoves(ctx context.Context, moves []entity.StockMoveProposal) ([]string, error)
}

type pgRouter struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRouter(pool *pgxpool.Pool, logger *slog.Logger) Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgRouter{pool: pool, logger: logger}
}

func (r *pgRouter) PostJournal(ctx context.Context, journal entity.JournalProposal) (string, error) {
	if !journal.Balanced() {
		return "", common.NewAppError("unbalanced_journal", "journal "+journal.JournalNo+" does not balance", common.ErrInvalidInput)
	}

	payload, err := json.Marshal(journal)
	if err != nil {
		return "", common.WrapError(err, "marshal journal")
	}
	id := uuid.New()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO journal_entries (id, journal_no, entry_date, currency, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, journal.JournalNo, journal.Date, journal.Currency, payload, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("ledger.journal.post_failed", "journal_no", journal.JournalNo, "error", err)
		return "", common.WrapError(err, "insert journal entry")
	}
	r.logger.Info("ledger.journal.posted", "journal_no", journal.JournalNo, "ledger_id", id)
	return id.String(), nil
}

func (r *pgRouter) CreateStockMoves(ctx context.Context, moves []entity.StockMoveProposal) ([]string, error) {
	ids := make([]string, 0, len(moves))
	for _, m := range moves {
		payload, err := json.Marshal(m)
		if err != nil {
			return ids, common.WrapError(err, "marshal stock move")
		}
		id := uuid.New()
		_, err = r.pool.Exec(ctx, `
			INSERT INTO stock_moves (id, move_no, item_no, warehouse, move_date, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, m.MoveNo, m.ItemNo, m.Warehouse, m.Date, payload, time.Now().UTC(),
		)
		if err != nil {
			r.logger.Error("ledger.stock_move.create_failed", "move_no", m.MoveNo, "error", err)
			return ids, common.WrapError(err, "insert stock move")
		}
		ids = append(ids, id.String())
	}
	if len(ids) > 0 {
		r.logger.Info("ledger.stock_moves.created", "count", len(ids))
	}
	return ids, nil
}
