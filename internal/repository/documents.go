// Package repository persists ingested documents. The document row is a
// thin envelope: identity, status and the dedup key are real columns,
// the pipeline snapshots live in jsonb.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordbok/invoice-ingest/constants"
	"github.com/nordbok/invoice-ingest/internal/common"
	"github.com/nordbok/invoice-ingest/internal/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.IngestedDocument) error
	Update(ctx context.Context, doc *entity.IngestedDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.IngestedDocument, error)
	// GetByMessageID returns common.ErrNotFound when the message has not
	// been ingested before.
	GetByMessageID(ctx context.Context, messageID string) (*entity.IngestedDocument, error)
	List(ctx context.Context, limit int) ([]*entity.IngestedDocument, error)
}

type pgDocumentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgDocumentRepository{pool: pool, logger: logger}
}

const documentColumns = `id, message_id, status, source, extracted, proposal, links, created_at, updated_at`

func (r *pgDocumentRepository) Create(ctx context.Context, doc *entity.IngestedDocument) error {
	source, extracted, proposal, links, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO ingested_documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.Source.MessageID, string(doc.Status), source, extracted, proposal, links,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("repo.documents.create_failed", "id", doc.ID, "error", err)
		return common.WrapError(err, "insert document")
	}
	r.logger.Info("repo.documents.created", "id", doc.ID, "message_id", doc.Source.MessageID)
	return nil
}

func (r *pgDocumentRepository) Update(ctx context.Context, doc *entity.IngestedDocument) error {
	source, extracted, proposal, links, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	doc.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE ingested_documents
		SET status = $2, source = $3, extracted = $4, proposal = $5, links = $6, updated_at = $7
		WHERE id = $1`,
		doc.ID, string(doc.Status), source, extracted, proposal, links, doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("repo.documents.update_failed", "id", doc.ID, "error", err)
		return common.WrapError(err, "update document")
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.IngestedDocument, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+documentColumns+` FROM ingested_documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (r *pgDocumentRepository) GetByMessageID(ctx context.Context, messageID string) (*entity.IngestedDocument, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+documentColumns+` FROM ingested_documents WHERE message_id = $1`, messageID)
	return scanDocument(row)
}

func (r *pgDocumentRepository) List(ctx context.Context, limit int) ([]*entity.IngestedDocument, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM ingested_documents
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, common.WrapError(err, "list documents")
	}
	defer rows.Close()

	var out []*entity.IngestedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func marshalDocument(doc *entity.IngestedDocument) (source, extracted, proposal, links []byte, err error) {
	if source, err = json.Marshal(doc.Source); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal source: %w", err)
	}
	if doc.Extracted != nil {
		if extracted, err = json.Marshal(doc.Extracted); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal extraction: %w", err)
		}
	}
	if doc.Proposal != nil {
		if proposal, err = json.Marshal(doc.Proposal); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal proposal: %w", err)
		}
	}
	if links, err = json.Marshal(doc.Links); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal links: %w", err)
	}
	return source, extracted, proposal, links, nil
}

func scanDocument(row pgx.Row) (*entity.IngestedDocument, error) {
	var (
		doc       entity.IngestedDocument
		status    string
		messageID string
		source    []byte
		extracted []byte
		proposal  []byte
		links     []byte
	)
	err := row.Scan(&doc.ID, &messageID, &status, &source, &extracted, &proposal, &links,
		&doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "scan document")
	}

	doc.Status = constants.DocStatus(status)
	if err := json.Unmarshal(source, &doc.Source); err != nil {
		return nil, fmt.Errorf("unmarshal source: %w", err)
	}
	if len(extracted) > 0 {
		doc.Extracted = &entity.Extraction{}
		if err := json.Unmarshal(extracted, doc.Extracted); err != nil {
			return nil, fmt.Errorf("unmarshal extraction: %w", err)
		}
	}
	if len(proposal) > 0 {
		doc.Proposal = &entity.Proposal{}
		if err := json.Unmarshal(proposal, doc.Proposal); err != nil {
			return nil, fmt.Errorf("unmarshal proposal: %w", err)
		}
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &doc.Links); err != nil {
			return nil, fmt.Errorf("unmarshal links: %w", err)
		}
	}
	doc.Source.MessageID = messageID
	return &doc, nil
}
