package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nordbok/invoice-ingest/internal/common"
	"github.com/nordbok/invoice-ingest/internal/entity"
)

// MemoryDocumentRepository backs the pipeline without a database: tests
// and one-shot CLI runs.
type MemoryDocumentRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*entity.IngestedDocument
	byMsg map[string]uuid.UUID
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		byID:  make(map[uuid.UUID]*entity.IngestedDocument),
		byMsg: make(map[string]uuid.UUID),
	}
}

func (r *MemoryDocumentRepository) Create(_ context.Context, doc *entity.IngestedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byMsg[doc.Source.MessageID]; ok {
		return common.ErrDuplicate
	}
	cp := *doc
	r.byID[doc.ID] = &cp
	r.byMsg[doc.Source.MessageID] = doc.ID
	return nil
}

func (r *MemoryDocumentRepository) Update(_ context.Context, doc *entity.IngestedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[doc.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *doc
	r.byID[doc.ID] = &cp
	return nil
}

func (r *MemoryDocumentRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.IngestedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *MemoryDocumentRepository) GetByMessageID(_ context.Context, messageID string) (*entity.IngestedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byMsg[messageID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemoryDocumentRepository) List(_ context.Context, limit int) ([]*entity.IngestedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.IngestedDocument, 0, len(r.byID))
	for _, doc := range r.byID {
		cp := *doc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
