// Package docflow owns the document lifecycle: intake, text acquisition,
// extraction, proposal building and routing into the ledger. Status
// moves RECEIVED -> PARSED -> ROUTED -> POSTED, and only this package
// performs transitions.
package docflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nordbok/invoice-ingest/constants"
	"github.com/nordbok/invoice-ingest/internal/common"
	"github.com/nordbok/invoice-ingest/internal/entity"
	"github.com/nordbok/invoice-ingest/internal/extract"
	"github.com/nordbok/invoice-ingest/internal/filestore"
	"github.com/nordbok/invoice-ingest/internal/ledger"
	"github.com/nordbok/invoice-ingest/internal/llm"
	"github.com/nordbok/invoice-ingest/internal/mail"
	"github.com/nordbok/invoice-ingest/internal/proposal"
	"github.com/nordbok/invoice-ingest/internal/repository"
	"github.com/nordbok/invoice-ingest/internal/textextract"
)

// raw text kept on a document is capped so one noisy scan cannot bloat
// the row
const maxRawTextChars = 100_000

// Acquirer is the text-acquisition seam; *textextract.Extractor is the
// production implementation.
type Acquirer interface {
	Extract(ctx context.Context, path string) (textextract.Result, error)
}

// Controller drives documents through the pipeline. Normalizer and
// Router may be nil: without a normalizer the heuristic draft stands,
// without a router documents stop at PARSED.
type Controller struct {
	docs       repository.DocumentRepository
	files      filestore.Store
	acquirer   Acquirer
	parser     *extract.Parser
	normalizer llm.Normalizer
	builder    *proposal.Builder
	router     ledger.Router
	logger     *slog.Logger
}

func NewController(
	docs repository.DocumentRepository,
	files filestore.Store,
	acquirer Acquirer,
	parser *extract.Parser,
	normalizer llm.Normalizer,
	builder *proposal.Builder,
	router ledger.Router,
	logger *slog.Logger,
) *Controller {
	if parser == nil {
		parser = extract.NewParser("", nil)
	}
	if builder == nil {
		builder = proposal.NewBuilder(proposal.Config{}, nil, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		docs:       docs,
		files:      files,
		acquirer:   acquirer,
		parser:     parser,
		normalizer: normalizer,
		builder:    builder,
		router:     router,
		logger:     logger,
	}
}

// IntakeMail registers one fetched message. The Message-Id is checked
// before any attachment is written, so re-running a batch over the same
// folder neither stores files twice nor creates a second document. The
// bool is true when a new document was created.
func (c *Controller) IntakeMail(ctx context.Context, msg mail.Message) (*entity.IngestedDocument, bool, error) {
	messageID := msg.ID
	if messageID == "" {
		messageID = "local-" + uuid.New().String()
		c.logger.Warn("docflow.intake.missing_message_id", "subject", msg.Subject, "assigned", messageID)
	}

	existing, err := c.docs.GetByMessageID(ctx, messageID)
	if err == nil {
		c.logger.Info("docflow.intake.duplicate", "message_id", messageID, "doc_id", existing.ID)
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, common.WrapError(err, "dedup lookup")
	}

	var paths []string
	for _, att := range msg.Attachments {
		path, serr := c.files.Save(att.Data, att.Filename)
		if serr != nil {
			return nil, false, common.NewAppError(common.CodeFileError, "store attachment "+att.Filename, serr)
		}
		paths = append(paths, path)
	}

	now := time.Now().UTC()
	doc := &entity.IngestedDocument{
		ID:     uuid.New(),
		Status: constants.DocStatusReceived,
		Source: entity.SourceMeta{
			Subject:    msg.Subject,
			From:       msg.From,
			MessageID:  messageID,
			Files:      paths,
			ReceivedAt: msg.ReceivedAt,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc.Source.ReceivedAt.IsZero() {
		doc.Source.ReceivedAt = now
	}

	if err := c.docs.Create(ctx, doc); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			existing, gerr := c.docs.GetByMessageID(ctx, messageID)
			if gerr == nil {
				return existing, false, nil
			}
		}
		return nil, false, common.WrapError(err, "create document")
	}
	c.logger.Info("docflow.intake.ok", "doc_id", doc.ID, "message_id", messageID, "files", len(paths))
	return doc, true, nil
}

// IntakeManual registers files dropped in by hand, outside any mailbox.
func (c *Controller) IntakeManual(ctx context.Context, subject string, files map[string][]byte) (*entity.IngestedDocument, error) {
	msg := mail.Message{
		ID:         "manual-" + uuid.New().String(),
		Subject:    subject,
		ReceivedAt: time.Now().UTC(),
	}
	for name, data := range files {
		msg.Attachments = append(msg.Attachments, mail.Attachment{Filename: name, Data: data})
	}
	doc, _, err := c.IntakeMail(ctx, msg)
	return doc, err
}

// Process acquires text from every stored file, extracts, optionally
// normalizes, builds the proposal and moves the document to PARSED. A
// file that fails acquisition is skipped, not fatal.
func (c *Controller) Process(ctx context.Context, id uuid.UUID) (*entity.IngestedDocument, error) {
	doc, err := c.docs.GetByID(ctx, id)
	if err != nil {
		return nil, common.WrapError(err, "load document")
	}

	text := c.acquireAll(ctx, doc)
	header := c.parser.ParseHeader(text)
	lines := c.parser.ParseLines(text)
	extraction := &entity.Extraction{Header: header, Lines: lines, RawText: text}

	if c.normalizer != nil {
		fields, _, nerr := c.normalizer.Normalize(ctx, llm.NormalizeRequest{
			Text:            text,
			DraftHeader:     header,
			DraftLines:      lines,
			DefaultCurrency: c.parser.HomeCurrency,
			SubjectHint:     doc.Source.Subject,
		})
		switch {
		case nerr != nil:
			// normalization is best-effort; the heuristic draft stands
			c.logger.Warn("docflow.normalize.failed", "doc_id", doc.ID, "error", nerr)
		case fields != nil:
			mergeNormalized(extraction, fields)
			c.logger.Info("docflow.normalize.merged", "doc_id", doc.ID, "lines", len(fields.Lines))
		}
	}

	prop := c.builder.Build(extraction.Header, extraction.Lines, doc.Source.Subject)
	doc.Extracted = extraction
	doc.Proposal = &prop
	doc.Status = constants.DocStatusParsed
	doc.UpdatedAt = time.Now().UTC()

	if err := c.docs.Update(ctx, doc); err != nil {
		return nil, common.WrapError(err, "save parsed document")
	}
	c.logger.Info("docflow.process.ok",
		"doc_id", doc.ID,
		"supplier", extraction.Header.Supplier.Name,
		"lines", len(extraction.Lines),
		"journal_no", prop.Journal.JournalNo,
		"stock_moves", len(prop.StockMoves),
	)
	return doc, nil
}

// Reextract recomputes extraction and proposal from the stored files,
// discarding earlier results. Routed links are kept for audit.
func (c *Controller) Reextract(ctx context.Context, id uuid.UUID) (*entity.IngestedDocument, error) {
	return c.Process(ctx, id)
}

// Route posts the proposal into the ledger and records the resulting
// identifiers. Requires a parsed document and a configured router.
func (c *Controller) Route(ctx context.Context, id uuid.UUID) (*entity.IngestedDocument, error) {
	if c.router == nil {
		return nil, common.NewAppError(common.CodeConfigError, "no ledger router configured", common.ErrInvalidInput)
	}
	doc, err := c.docs.GetByID(ctx, id)
	if err != nil {
		return nil, common.WrapError(err, "load document")
	}
	if doc.Proposal == nil || (doc.Status != constants.DocStatusParsed && doc.Status != constants.DocStatusRouted) {
		return nil, common.NewAppError("invalid_status", fmt.Sprintf("cannot route document in status %s", doc.Status), common.ErrInvalidInput)
	}

	journalID, err := c.router.PostJournal(ctx, doc.Proposal.Journal)
	if err != nil {
		return nil, common.WrapError(err, "post journal")
	}
	moveIDs, err := c.router.CreateStockMoves(ctx, doc.Proposal.StockMoves)
	if err != nil {
		return nil, common.WrapError(err, "create stock moves")
	}

	doc.Links = entity.Links{JournalID: journalID, StockMoveIDs: moveIDs}
	doc.Status = constants.DocStatusRouted
	doc.UpdatedAt = time.Now().UTC()
	if err := c.docs.Update(ctx, doc); err != nil {
		return nil, common.WrapError(err, "save routed document")
	}
	c.logger.Info("docflow.route.ok", "doc_id", doc.ID, "journal_id", journalID, "stock_moves", len(moveIDs))
	return doc, nil
}

// MarkPosted confirms the ledger accepted everything; terminal state.
func (c *Controller) MarkPosted(ctx context.Context, id uuid.UUID) (*entity.IngestedDocument, error) {
	doc, err := c.docs.GetByID(ctx, id)
	if err != nil {
		return nil, common.WrapError(err, "load document")
	}
	if doc.Status != constants.DocStatusRouted {
		return nil, common.NewAppError("invalid_status", fmt.Sprintf("cannot post document in status %s", doc.Status), common.ErrInvalidInput)
	}
	doc.Status = constants.DocStatusPosted
	doc.UpdatedAt = time.Now().UTC()
	if err := c.docs.Update(ctx, doc); err != nil {
		return nil, common.WrapError(err, "save posted document")
	}
	c.logger.Info("docflow.posted", "doc_id", doc.ID)
	return doc, nil
}

func (c *Controller) acquireAll(ctx context.Context, doc *entity.IngestedDocument) string {
	var parts []string
	for _, path := range doc.Source.Files {
		res, err := c.acquirer.Extract(ctx, path)
		if err != nil {
			c.logger.Warn("docflow.acquire.failed", "doc_id", doc.ID, "path", path, "error", err)
			continue
		}
		for _, w := range res.Warnings {
			c.logger.Warn("docflow.acquire.warning", "doc_id", doc.ID, "path", path, "warning", w)
		}
		if strings.TrimSpace(res.Text) != "" {
			parts = append(parts, res.Text)
		}
	}
	text := strings.Join(parts, "\n\n")
	if len(text) > maxRawTextChars {
		text = text[:maxRawTextChars]
	}
	return text
}

// mergeNormalized overlays the model's answer on the heuristic draft.
// Only non-empty normalized fields win; lines are replaced wholesale
// when the model produced any.
func mergeNormalized(ex *entity.Extraction, fields *llm.InvoiceFields) {
	h := &ex.Header
	f := fields.Header
	setIf(&h.Supplier.Name, f.SupplierName)
	setIf(&h.Supplier.TaxID, f.TaxID)
	setIf(&h.Numbers.InvoiceNo, f.InvoiceNo)
	setIf(&h.Numbers.OrderNo, f.OrderNo)
	setIf(&h.Numbers.PONo, f.PONo)
	setIf(&h.Numbers.JENumber, f.JENumber)
	setIf(&h.Date, f.Date)
	setIf(&h.Currency, f.Currency)
	setMoney(&h.Totals.Subtotal, f.Subtotal)
	setMoney(&h.Totals.Tax, f.Tax)
	setMoney(&h.Totals.TotalInclusive, f.Total)

	if len(fields.Lines) == 0 {
		return
	}
	lines := make([]entity.ExtractedLine, 0, len(fields.Lines))
	for _, fl := range fields.Lines {
		cat, _ := constants.Canonicalize(fl.Category)
		line := entity.ExtractedLine{
			SKU:         fl.SKU,
			Description: fl.Description,
			Quantity:    parseDecimal(fl.Qty),
			UOM:         fl.UOM,
			UnitPrice:   parseDecimal(fl.UnitPrice),
			LineTotal:   parseDecimal(fl.LineTotal),
			Category:    string(cat),
		}
		if line.UOM == "" {
			line.UOM = constants.DefaultUOM(cat)
		}
		line.NetAmount = line.LineTotal
		if fl.TaxRate != "" {
			rate := parseDecimal(fl.TaxRate)
			line.TaxRate = &rate
		}
		lines = append(lines, line)
	}
	ex.Lines = lines
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setMoney(dst **float64, v string) {
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*dst = &f
}

func parseDecimal(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}
