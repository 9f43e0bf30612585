package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nordbok/invoice-ingest/constants"
	"github.com/nordbok/invoice-ingest/internal/entity"
	"github.com/nordbok/invoice-ingest/internal/repository"
)

func seedDocument(t *testing.T, repo *repository.MemoryDocumentRepository) {
	t.Helper()
	total := 125.0
	doc := &entity.IngestedDocument{
		ID:     uuid.New(),
		Status: constants.DocStatusParsed,
		Source: entity.SourceMeta{
			Subject:    "Faktura mars",
			MessageID:  "<x@mail.example>",
			ReceivedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		},
		Extracted: &entity.Extraction{
			Header: entity.ExtractedHeader{
				Supplier: entity.Supplier{Name: "Nordisk Utstyr AS"},
				Numbers:  entity.DocumentNumbers{InvoiceNo: "2024-0042"},
				Date:     "2024-03-05",
				Currency: "NOK",
				Totals:   entity.Totals{TotalInclusive: &total},
			},
		},
		Proposal: &entity.Proposal{
			Journal: entity.JournalProposal{
				JournalNo: "JRN-001",
				Date:      "2024-03-05",
				Currency:  "NOK",
				Lines: []entity.JournalLine{
					{Account: "4300", Debit: decimal.NewFromInt(125)},
					{Account: "2400", Credit: decimal.NewFromInt(125)},
				},
			},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), doc))
}

func TestExportDocumentsXLSX(t *testing.T) {
	repo := repository.NewMemoryDocumentRepository()
	seedDocument(t, repo)

	svc := NewService(repo, nil)
	b, err := svc.ExportDocumentsXLSX(context.Background(), 50)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Documents")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Nordisk Utstyr AS", rows[1][2])
	assert.Equal(t, "2024-0042", rows[1][3])

	jrows, err := f.GetRows("Journal Lines")
	require.NoError(t, err)
	require.Len(t, jrows, 3)
	assert.Equal(t, "4300", jrows[1][2])
	assert.Equal(t, "2400", jrows[2][2])
}

func TestExportEmptyRepository(t *testing.T) {
	svc := NewService(repository.NewMemoryDocumentRepository(), nil)
	b, err := svc.ExportDocumentsXLSX(context.Background(), 10)
	require.NoError(t, err)
	assert.NotEmpty(t, b)
}
