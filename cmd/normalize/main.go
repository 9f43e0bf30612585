// normalize runs the whole pipeline on local files without touching a
// database or mailbox: extract, parse, optionally normalize, build the
// proposal, and print the resulting document as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nordbok/invoice-ingest/internal/common"
	"github.com/nordbok/invoice-ingest/internal/docflow"
	"github.com/nordbok/invoice-ingest/internal/extract"
	"github.com/nordbok/invoice-ingest/internal/filestore"
	"github.com/nordbok/invoice-ingest/internal/llm"
	"github.com/nordbok/invoice-ingest/internal/llm/openai"
	"github.com/nordbok/invoice-ingest/internal/proposal"
	"github.com/nordbok/invoice-ingest/internal/repository"
	"github.com/nordbok/invoice-ingest/internal/textextract"
)

func main() {
	var (
		subject = flag.String("subject", "", "subject hint passed to extraction")
		timeout = flag.Duration("timeout", 3*time.Minute, "overall timeout")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		logger.Error("usage", "cmd", "normalize [flags] <file> [file...]")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	tmp, err := os.MkdirTemp("", "invoice-normalize-*")
	if err != nil {
		logger.Error("temp dir", "error", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmp)

	files, err := filestore.NewDirStore(tmp, logger)
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

	docs := repository.NewMemoryDocumentRepository()
	controller := docflow.NewController(docs, files, acquirer, parser, normalizer, builder, nil, logger)

	payload := map[string][]byte{}
	for _, path := range flag.Args() {
		b, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read input", "path", path, "error", err)
			os.Exit(1)
		}
		payload[path] = b
	}

	doc, err := controller.IntakeManual(ctx, *subject, payload)
	if err != nil {
		logger.Error("intake", "error", err)
		os.Exit(1)
	}
	doc, err = controller.Process(ctx, doc.ID)
	if err != nil {
		logger.Error("process", "error", err)
		os.Exit(1)
	}

	doc.Extracted.RawText = "" // keep stdout readable
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
