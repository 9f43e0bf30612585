// Package export produces XLSX workbooks for review: one sheet of
// documents, one of the drafted journal lines.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nordbok/invoice-ingest/internal/entity"
	"github.com/nordbok/invoice-ingest/internal/repository"
)

// Service is a tiny façade over the document repository that produces
// XLSX bytes for exports.
type Service struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

// ExportDocumentsXLSX returns a workbook covering the newest documents,
// up to limit.
func (s *Service) ExportDocumentsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	if err := writeDocumentsSheet(f, docs); err != nil {
		return nil, err
	}
	if err := writeJournalSheet(f, docs); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"documents", len(docs),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeDocumentsSheet(f *excelize.File, docs []*entity.IngestedDocument) error {
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Received",
		"Status",
		"Supplier",
		"Invoice No",
		"Date",
		"Currency",
		"Total Incl",
		"Journal No",
		"Mail Subject",
		"Message-Id",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, d.Source.ReceivedAt.Format("2006-01-02"))
		write(2, string(d.Status))
		if d.Extracted != nil {
			write(3, d.Extracted.Header.Supplier.Name)
			write(4, d.Extracted.Header.Numbers.InvoiceNo)
			write(5, d.Extracted.Header.Date)
			write(6, d.Extracted.Header.Currency)
			if d.Extracted.Header.Totals.TotalInclusive != nil {
				write(7, *d.Extracted.Header.Totals.TotalInclusive)
			}
		}
		if d.Proposal != nil {
			write(8, d.Proposal.Journal.JournalNo)
		}
		write(9, d.Source.Subject)
		write(10, d.Source.MessageID)
		row++
	}
	return nil
}

func writeJournalSheet(f *excelize.File, docs []*entity.IngestedDocument) error {
	const sheet = "Journal Lines"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	headers := []string{"Journal No", "Date", "Account", "Memo", "Debit", "Credit", "Currency"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		if d.Proposal == nil {
			continue
		}
		j := d.Proposal.Journal
		for _, l := range j.Lines {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			write(1, j.JournalNo)
			write(2, j.Date)
			write(3, l.Account)
			write(4, l.Memo)
			write(5, l.Debit.InexactFloat64())
			write(6, l.Credit.InexactFloat64())
			write(7, j.Currency)
			row++
		}
	}
	return nil
}
