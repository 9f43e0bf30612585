// ingestd polls an IMAP folder for invoice mail, runs every new message
// through the extraction pipeline and leaves parsed (and, with
// -route, routed) documents in the database.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nordbok/invoice-ingest/constants"
	"github.com/nordbok/invoice-ingest/internal/common"
	"github.com/nordbok/invoice-ingest/internal/docflow"
	"github.com/nordbok/invoice-ingest/internal/export"
	"github.com/nordbok/invoice-ingest/internal/extract"
	"github.com/nordbok/invoice-ingest/internal/filestore"
	"github.com/nordbok/invoice-ingest/internal/ledger"
	"github.com/nordbok/invoice-ingest/internal/llm"
	"github.com/nordbok/invoice-ingest/internal/llm/openai"
	"github.com/nordbok/invoice-ingest/internal/mail"
	"github.com/nordbok/invoice-ingest/internal/proposal"
	"github.com/nordbok/invoice-ingest/internal/repository"
	"github.com/nordbok/invoice-ingest/internal/textextract"
)

func main() {
	var (
		once       = flag.Bool("once", false, "run a single batch and exit")
		route      = flag.Bool("route", false, "post parsed proposals into the ledger")
		interval   = flag.Duration("interval", 5*time.Minute, "poll interval")
		exportPath = flag.String("export-xlsx", "", "write a review workbook after each batch")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
		logger.Error("db health", "error", err)
		os.Exit(1)
	}

	files, err := filestore.NewDirStore(cfg.Ingest.FileDir, logger)
	if err != nil {
		logger.Error("open filestore", "error", err)
		os.Exit(1)
	}

	cloud := textextract.NewCloudClient(textextract.CloudConfig{
		Endpoint: cfg.OCR.CloudEndpoint,
		APIKey:   cfg.OCR.CloudAPIKey,
		Timeout:  cfg.OCR.Timeout,
	}, logger)
	acquirer := textextract.NewExtractor(textextract.Config{
		Vendor:      textextract.Vendor(cfg.OCR.Vendor),
		Tesseract:   cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		Languages:   cfg.OCR.Languages,
	}, cloud, logger)

	var normalizer llm.Normalizer
	oc := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		Retry: llm.RetryPolicy{
			MaxAttempts: cfg.LLM.MaxAttempts,
			BaseDelay:   cfg.LLM.RetryBase,
			MaxDelay:    cfg.LLM.RetryCap,
		},
	}, logger)
	if oc.Enabled() {
		normalizer = oc
	} else {
		logger.Info("normalization disabled, heuristics only")
	}

	parser := extract.NewParser(cfg.Ledger.HomeCurrency, logger)
	builder := proposal.NewBuilder(proposal.Config{
		PayableAccount:   cfg.Ledger.PayableAccount,
		InventoryAccount: cfg.Ledger.InventoryAccount,
		ExpenseAccount:   cfg.Ledger.ExpenseAccount,
		Warehouse:        cfg.Ledger.Warehouse,
	}, nil, logger)

	var router ledger.Router
	if *route {
		router = ledger.NewRouter(pool, logger)
	}

	docs := repository.NewDocumentRepository(pool, logger)
	controller := docflow.NewController(docs, files, acquirer, parser, normalizer, builder, router, logger)
	exporter := export.NewService(docs, logger)

	batch := docflow.BatchConfig{
		Subject:        cfg.Ingest.SubjectFilter,
		From:           cfg.Ingest.FromFilter,
		MaxMessages:    cfg.Ingest.MaxMessages,
		MaxAttachments: cfg.Ingest.MaxAttachments,
	}

	runBatch := func() {
		mbox, err := mail.DialIMAP(mail.IMAPConfig{
			Addr:     cfg.Mail.Addr,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			Folder:   cfg.Mail.Folder,
		}, logger)
		if err != nil {
			logger.Error("imap dial", "error", err)
			return
		}
		defer func() {
			if cerr := mbox.Close(); cerr != nil {
				logger.Warn("imap close", "error", cerr)
			}
		}()

		stats, err := controller.FetchBatch(ctx, mbox, batch)
		if err != nil {
			logger.Error("batch failed", "error", err)
			return
		}
		if router != nil {
			routeParsed(ctx, controller, docs, logger)
		}
		if *exportPath != "" {
			writeWorkbook(ctx, exporter, *exportPath, logger)
		}
		logger.Info("batch complete",
			"fetched", stats.Fetched, "ingested", stats.Ingested,
			"duplicates", stats.Duplicates, "failed", stats.Failed)
	}

	runBatch()
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			runBatch()
		}
	}
}

func routeParsed(ctx context.Context, controller *docflow.Controller, docs repository.DocumentRepository, logger *slog.Logger) {
	list, err := docs.List(ctx, 200)
	if err != nil {
		logger.Error("list for routing", "error", err)
		return
	}
	for _, d := range list {
		if d.Status != constants.DocStatusParsed {
			continue
		}
		if _, err := controller.Route(ctx, d.ID); err != nil {
			if !errors.Is(err, common.ErrInvalidInput) {
				logger.Error("route document", "doc_id", d.ID, "error", err)
			}
		}
	}
}

func writeWorkbook(ctx context.Context, exporter *export.Service, path string, logger *slog.Logger) {
	b, err := exporter.ExportDocumentsXLSX(ctx, 500)
	if err != nil {
		logger.Error("export workbook", "error", err)
		return
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		logger.Error("write workbook", "path", path, "error", err)
	}
}
