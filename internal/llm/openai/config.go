package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nordbok/invoice-ingest/internal/llm"
)

// Config for the OpenAI-compatible normalization client.
type Config struct {
	APIKey      string // if empty, falls back to env OPENAI_API_KEY; still empty -> client disabled
	BaseURL     string // default https://api.openai.com/v1
	Model       string // e.g. "gpt-4o-mini"
	Temperature float32
	Timeout     time.Duration
	Retry       llm.RetryPolicy
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = llm.NewRetryPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Enabled reports whether a credential is present. A disabled client is
// still safe to call; Normalize becomes a no-op.
func (c *Client) Enabled() bool { return c.cfg.APIKey != "" }
