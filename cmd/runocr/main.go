// runocr extracts text from a single file and prints it, useful for
// checking what the pipeline will see before mail ever arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nordbok/invoice-ingest/internal/common"
	"github.com/nordbok/invoice-ingest/internal/textextract"
)

func main() {
	var (
		vendor  = flag.String("vendor", "", "ocr vendor: auto | tesseract | cloud")
		langs   = flag.String("langs", "", "tesseract language set, e.g. eng+nor")
		timeout = flag.Duration("timeout", 2*time.Minute, "overall timeout")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [flags] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	if *vendor == "" {
		*vendor = cfg.OCR.Vendor
	}
	if *langs == "" {
		*langs = cfg.OCR.Languages
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cloud := textextract.NewCloudClient(textextract.CloudConfig{
		Endpoint: cfg.OCR.CloudEndpoint,
		APIKey:   cfg.OCR.CloudAPIKey,
		Timeout:  cfg.OCR.Timeout,
	}, logger)
	extractor := textextract.NewExtractor(textextract.Config{
		Vendor:      textextract.Vendor(*vendor),
		Tesseract:   cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		Languages:   *langs,
	}, cloud, logger)

	res, err := extractor.Extract(ctx, path)
	if err != nil {
		logger.Error("extract failed", "path", path, "error", err)
		os.Exit(1)
	}

	logger.Info("extract done",
		"method", res.Method,
		"language", res.Language,
		"chars", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	fmt.Println(res.Text)
}
