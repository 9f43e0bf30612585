package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nordbok/invoice-ingest/constants"
)

// Vendor selects which OCR engine handles a document.
type Vendor string

const (
	VendorAuto      Vendor = "auto"
	VendorTesseract Vendor = "tesseract"
	VendorCloud     Vendor = "cloud"
)

type Config struct {
	Vendor      Vendor
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	Languages   string // tesseract language set, default "eng"
}

type Result struct {
	Text     string
	Method   string // "pdf-text" | "pdf-cloud-ocr" | "image-ocr" | "image-cloud-ocr" | "plain"
	Language string
	Duration time.Duration
	Warnings []string
}

// Extractor turns a stored file into best-effort plain text.
type Extractor struct {
	cfg    Config
	runner Runner
	cloud  CloudEngine
	logger *slog.Logger

	pdfText func(path string) (string, error)
}

func NewExtractor(cfg Config, cloud CloudEngine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Vendor == "" {
		cfg.Vendor = VendorAuto
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "eng"
	}
	if cloud == nil {
		cloud = NewCloudClient(CloudConfig{}, logger)
	}
	return &Extractor{
		cfg:     cfg,
		runner:  execRunner{},
		cloud:   cloud,
		logger:  logger,
		pdfText: nativePDFText,
	}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	format := constants.MapExtToFormat(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "format", format, "vendor", e.cfg.Vendor)

	var res Result
	var err error
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	default:
		res = e.extractPlain(path)
	}
	res.Duration = time.Since(start)
	return res, err
}

// extractPDF tries the native text layer first. A scanned PDF is handed
// to the cloud engine: the local engine cannot rasterize PDFs.
func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	res := Result{Method: "pdf-text", Language: e.cfg.Languages}

	text, err := e.pdfText(path)
	if err != nil {
		res.Warnings = append(res.Warnings, "native text layer: "+err.Error())
	}
	if err == nil && !looksEmpty(text) {
		res.Text = text
		return res, nil
	}

	if !e.cloud.Configured() {
		res.Text = text
		res.Warnings = append(res.Warnings, "pdf looks scanned but no cloud ocr credential is configured")
		e.logger.Warn("ocr.pdf.degraded", "path", path, "chars", strippedLen(text))
		return res, nil
	}

	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return res, fmt.Errorf("read pdf for ocr: %w", rerr)
	}
	lang := cloudLanguage(e.cfg.Languages)
	ocrText, oerr := e.cloud.Recognize(ctx, data, filepath.Base(path), lang)
	if oerr != nil {
		// keep whatever the text layer gave us; degrade, do not fail
		res.Text = text
		res.Warnings = append(res.Warnings, "cloud ocr failed: "+oerr.Error())
		e.logger.Warn("ocr.pdf.cloud_failed", "path", path, "error", oerr)
		return res, nil
	}

	res.Method = "pdf-cloud-ocr"
	res.Text = ocrText
	res.Language = lang
	return e.maybeRelocale(ctx, res, func(ctx context.Context, _ string) (string, error) {
		return e.cloud.Recognize(ctx, data, filepath.Base(path), secondaryLang)
	}), nil
}

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	switch e.cfg.Vendor {
	case VendorCloud:
		return e.imageCloud(ctx, path)

	case VendorTesseract:
		res := Result{Method: "image-ocr", Language: e.cfg.Languages}
		text, err := e.tesseractOCR(ctx, path, e.cfg.Languages)
		if err != nil {
			return res, err
		}
		res.Text = text
		return e.maybeRelocale(ctx, res, func(ctx context.Context, langs string) (string, error) {
			return e.tesseractOCR(ctx, path, langs)
		}), nil

	default: // auto: local first, cloud as the fallback when credentialed
		res := Result{Method: "image-ocr", Language: e.cfg.Languages}
		text, err := e.tesseractOCR(ctx, path, e.cfg.Languages)
		if err != nil {
			if e.cloud.Configured() {
				e.logger.Warn("ocr.local.fallback", "path", path, "error", err)
				return e.imageCloud(ctx, path)
			}
			return res, err
		}
		res.Text = text
		if looksEmpty(text) && e.cloud.Configured() {
			cres, cerr := e.imageCloud(ctx, path)
			if cerr == nil && !looksEmpty(cres.Text) {
				return cres, nil
			}
			if cerr != nil {
				res.Warnings = append(res.Warnings, "cloud fallback failed: "+cerr.Error())
			}
		}
		return e.maybeRelocale(ctx, res, func(ctx context.Context, langs string) (string, error) {
			return e.tesseractOCR(ctx, path, langs)
		}), nil
	}
}

func (e *Extractor) imageCloud(ctx context.Context, path string) (Result, error) {
	res := Result{Method: "image-cloud-ocr"}
	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read image for ocr: %w", err)
	}
	lang := cloudLanguage(e.cfg.Languages)
	text, err := e.cloud.Recognize(ctx, data, filepath.Base(path), lang)
	if err != nil {
		return res, err
	}
	res.Text = text
	res.Language = lang
	return e.maybeRelocale(ctx, res, func(ctx context.Context, _ string) (string, error) {
		return e.cloud.Recognize(ctx, data, filepath.Base(path), secondaryLang)
	}), nil
}

// extractPlain reads the file as-is; a read failure yields empty text,
// never an error.
func (e *Extractor) extractPlain(path string) Result {
	res := Result{Method: "plain"}
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("ocr.plain.read_failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, "read text file: "+err.Error())
		return res
	}
	res.Text = string(data)
	return res
}

// cloudLanguage maps the tesseract language set to the single code the
// cloud engine accepts.
func cloudLanguage(langs string) string {
	if i := strings.IndexByte(langs, '+'); i > 0 {
		return langs[:i]
	}
	return langs
}
