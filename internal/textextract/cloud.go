package textextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// CloudEngine is the remote OCR call. Configured reports whether a
// credential is present; an unconfigured engine is skipped, not an error.
type CloudEngine interface {
	Recognize(ctx context.Context, data []byte, filename, language string) (string, error)
	Configured() bool
}

// CloudConfig configures the hosted OCR engine (OCR.space-compatible API).
type CloudConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type CloudClient struct {
	cfg    CloudConfig
	http   *http.Client
	logger *slog.Logger
}

func NewCloudClient(cfg CloudConfig, logger *slog.Logger) *CloudClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.ocr.space/parse/image"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *CloudClient) Configured() bool {
	return c.cfg.APIKey != ""
}

type cloudResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"` // string or []string
}

// Recognize posts the file as multipart form data and returns the joined
// parsed text. Non-2xx responses and error-flagged bodies are failures.
func (c *CloudClient) Recognize(ctx context.Context, data []byte, filename, language string) (string, error) {
	start := time.Now()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("language", language); err != nil {
		return "", fmt.Errorf("write field: %w", err)
	}
	if err := w.WriteField("scale", "true"); err != nil {
		return "", fmt.Errorf("write field: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("ocr.cloud.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("cloud ocr: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("ocr.cloud.body_close_error", "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("cloud ocr status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var cr cloudResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decode cloud ocr response: %w", err)
	}
	if cr.IsErroredOnProcessing {
		return "", fmt.Errorf("cloud ocr errored: %s", truncate(string(cr.ErrorMessage), 512))
	}

	var b strings.Builder
	for _, pr := range cr.ParsedResults {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pr.ParsedText)
	}

	c.logger.Info("ocr.cloud.ok",
		"bytes_in", len(data),
		"bytes_out", b.Len(),
		"language", language,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b.String(), nil
}
