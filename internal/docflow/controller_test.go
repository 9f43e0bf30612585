package docflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordbok/invoice-ingest/constants"
	"github.com/nordbok/invoice-ingest/internal/entity"
	"github.com/nordbok/invoice-ingest/internal/ledger"
	"github.com/nordbok/invoice-ingest/internal/llm"
	"github.com/nordbok/invoice-ingest/internal/mail"
	"github.com/nordbok/invoice-ingest/internal/repository"
	"github.com/nordbok/invoice-ingest/internal/textextract"
)

const receiptText = "Kvittering\nMVA 25%: 20,00\nÅ betale: 120,00\n"

// memStore keeps attachment bytes in memory and counts writes.
type memStore struct {
	saved map[string][]byte
	saves int
}

func newMemStore() *memStore { return &memStore{saved: map[string][]byte{}} }

func (s *memStore) Save(data []byte, name string) (string, error) {
	s.saves++
	path := "mem://" + name
	s.saved[path] = data
	return path, nil
}

func (s *memStore) Read(path string) ([]byte, error) {
	b, ok := s.saved[path]
	if !ok {
		return nil, errors.New("not stored: " + path)
	}
	return b, nil
}

// storeAcquirer "extracts" by reading the stored bytes back as text.
type storeAcquirer struct{ store *memStore }

func (a storeAcquirer) Extract(_ context.Context, path string) (textextract.Result, error) {
	b, err := a.store.Read(path)
	if err != nil {
		return textextract.Result{}, err
	}
	return textextract.Result{Text: string(b), Method: "plain"}, nil
}

type fakeRouter struct {
	journals int
	moves    int
}

func (r *fakeRouter) PostJournal(_ context.Context, j entity.JournalProposal) (string, error) {
	r.journals++
	return "LJ-" + j.JournalNo, nil
}

func (r *fakeRouter) CreateStockMoves(_ context.Context, moves []entity.StockMoveProposal) ([]string, error) {
	r.moves += len(moves)
	ids := make([]string, len(moves))
	for i, m := range moves {
		ids[i] = "LM-" + m.MoveNo
	}
	return ids, nil
}

type fakeNormalizer struct {
	fields *llm.InvoiceFields
	err    error
	calls  int
}

func (n *fakeNormalizer) Normalize(_ context.Context, _ llm.NormalizeRequest) (*llm.InvoiceFields, []byte, error) {
	n.calls++
	return n.fields, nil, n.err
}

func testController(store *memStore, normalizer llm.Normalizer, router *fakeRouter) (*Controller, *repository.MemoryDocumentRepository) {
	docs := repository.NewMemoryDocumentRepository()
	var lr ledger.Router
	if router != nil {
		lr = router
	}
	c := NewController(docs, store, storeAcquirer{store: store}, nil, normalizer, nil, lr, nil)
	return c, docs
}

func receiptMessage(id string) mail.Message {
	return mail.Message{
		ID:         id,
		Subject:    "Kvittering kaffe",
		From:       "resepsjon@example.no",
		ReceivedAt: time.Now().UTC(),
		Attachments: []mail.Attachment{
			{Filename: "kvittering.txt", ContentType: "text/plain", Data: []byte(receiptText)},
		},
	}
}

func TestIntakeMailDedupSkipsFileWrites(t *testing.T) {
	store := newMemStore()
	c, _ := testController(store, nil, nil)
	ctx := context.Background()

	first, created, err := c.IntakeMail(ctx, receiptMessage("<a@mail.example>"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, store.saves)

	second, created, err := c.IntakeMail(ctx, receiptMessage("<a@mail.example>"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.saves, "duplicate intake must not store files again")
}

func TestProcessHeuristicsOnly(t *testing.T) {
	store := newMemStore()
	c, _ := testController(store, nil, nil)
	ctx := context.Background()

	doc, _, err := c.IntakeMail(ctx, receiptMessage("<b@mail.example>"))
	require.NoError(t, err)

	doc, err = c.Process(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusParsed, doc.Status)

	require.NotNil(t, doc.Extracted)
	require.NotNil(t, doc.Extracted.Header.Totals.TotalInclusive)
	assert.Equal(t, 120.0, *doc.Extracted.Header.Totals.TotalInclusive)
	assert.Contains(t, doc.Extracted.RawText, "Kvittering")

	require.NotNil(t, doc.Proposal)
	assert.True(t, doc.Proposal.Journal.Balanced())
	assert.NotEmpty(t, doc.Proposal.Journal.JournalNo)
}

func TestProcessMergesNormalizedFields(t *testing.T) {
	store := newMemStore()
	n := &fakeNormalizer{fields: &llm.InvoiceFields{
		Header: llm.HeaderFields{
			SupplierName: "Kaffebrenneriet AS",
			Date:         "2024-03-05",
			Currency:     "NOK",
			Total:        "120.00",
		},
		Lines: []llm.LineFields{
			{Description: "Kaffe", Qty: "2", UOM: "ea", UnitPrice: "60.00", LineTotal: "120.00", Category: "expense"},
		},
	}}
	c, _ := testController(store, n, nil)
	ctx := context.Background()

	doc, _, err := c.IntakeMail(ctx, receiptMessage("<c@mail.example>"))
	require.NoError(t, err)
	doc, err = c.Process(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, n.calls)
	assert.Equal(t, "Kaffebrenneriet AS", doc.Extracted.Header.Supplier.Name)
	assert.Equal(t, "2024-03-05", doc.Extracted.Header.Date)
	require.Len(t, doc.Extracted.Lines, 1)
	assert.Equal(t, "Kaffe", doc.Extracted.Lines[0].Description)
	assert.Equal(t, 2.0, doc.Extracted.Lines[0].Quantity)
	assert.True(t, doc.Proposal.Journal.Balanced())
}

func TestProcessKeepsDraftWhenNormalizerFails(t *testing.T) {
	store := newMemStore()
	n := &fakeNormalizer{err: errors.New("model unavailable")}
	c, _ := testController(store, n, nil)
	ctx := context.Background()

	doc, _, err := c.IntakeMail(ctx, receiptMessage("<d@mail.example>"))
	require.NoError(t, err)
	doc, err = c.Process(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, constants.DocStatusParsed, doc.Status)
	assert.Empty(t, doc.Extracted.Header.Supplier.Name)
	require.NotNil(t, doc.Extracted.Header.Totals.TotalInclusive)
	assert.Equal(t, 120.0, *doc.Extracted.Header.Totals.TotalInclusive)
}

func TestRouteAndMarkPosted(t *testing.T) {
	store := newMemStore()
	router := &fakeRouter{}
	c, _ := testController(store, nil, router)
	ctx := context.Background()

	doc, _, err := c.IntakeMail(ctx, receiptMessage("<e@mail.example>"))
	require.NoError(t, err)

	// cannot post before routing
	_, err = c.MarkPosted(ctx, doc.ID)
	assert.Error(t, err)

	_, err = c.Process(ctx, doc.ID)
	require.NoError(t, err)
	doc, err = c.Route(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusRouted, doc.Status)
	assert.NotEmpty(t, doc.Links.JournalID)
	assert.Equal(t, 1, router.journals)

	doc, err = c.MarkPosted(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusPosted, doc.Status)
}

func TestRouteWithoutRouterConfigured(t *testing.T) {
	store := newMemStore()
	c, _ := testController(store, nil, nil)
	ctx := context.Background()

	doc, _, err := c.IntakeMail(ctx, receiptMessage("<f@mail.example>"))
	require.NoError(t, err)
	_, err = c.Process(ctx, doc.ID)
	require.NoError(t, err)

	_, err = c.Route(ctx, doc.ID)
	assert.Error(t, err)
}

func TestIntakeManual(t *testing.T) {
	store := newMemStore()
	c, _ := testController(store, nil, nil)
	ctx := context.Background()

	doc, err := c.IntakeManual(ctx, "manuelt bilag", map[string][]byte{"notat.txt": []byte(receiptText)})
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusReceived, doc.Status)
	assert.Contains(t, doc.Source.MessageID, "manual-")

	doc, err = c.Process(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusParsed, doc.Status)
}
