package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nordbok/invoice-ingest/internal/llm"
)

// Normalize implements llm.Normalizer using text-only chat/completions.
// Without a credential it returns (nil, nil, nil) so the pipeline keeps
// the heuristic draft untouched.
func (c *Client) Normalize(ctx context.Context, req llm.NormalizeRequest) (*llm.InvoiceFields, []byte, error) {
	if !c.Enabled() {
		c.logger.Debug("llm.normalize.disabled", "reason", "no api key configured")
		return nil, nil, nil
	}

	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.normalize.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"draft_lines", len(req.DraftLines),
		"default_currency", req.DefaultCurrency,
	)

	schema := llm.BuildInvoiceJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req)},
			{"role": "user", "content": llm.BuildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var lastErr error
	for attempt := 0; attempt < c.cfg.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.cfg.Retry.Sleep(ctx, attempt-1); err != nil {
				return nil, nil, err
			}
			c.logger.Warn("llm.normalize.retry", "req_id", rid, "attempt", attempt, "last_error", lastErr)
		}

		raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
		if err != nil {
			lastErr = err
			if llm.Retriable(status, err) {
				continue
			}
			return nil, raw, fmt.Errorf("normalize call: %w", err)
		}

		// retries are for transport trouble; an unparsable or
		// schema-breaking completion fails the call outright
		out, content, perr := c.parseResponse(rid, schema, raw)
		if perr != nil {
			return nil, content, fmt.Errorf("normalize response: %w", perr)
		}

		c.logger.Info("llm.normalize.ok",
			"req_id", rid,
			"supplier", out.Header.SupplierName,
			"date", out.Header.Date,
			"total", out.Header.Total,
			"currency", out.Header.Currency,
			"lines", len(out.Lines),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return out, content, nil
	}

	c.logger.Error("llm.normalize.exhausted",
		"req_id", rid,
		"attempts", c.cfg.Retry.MaxAttempts,
		"error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil, nil, fmt.Errorf("normalize failed after %d attempts: %w", c.cfg.Retry.MaxAttempts, lastErr)
}

func (c *Client) parseResponse(rid string, schema map[string]any, raw []byte) (*llm.InvoiceFields, []byte, error) {
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.normalize.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.normalize.no_choices", "req_id", rid, "raw", string(raw))
		return nil, nil, fmt.Errorf("no choices in response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		c.logger.Error("llm.normalize.schema_validation_failed", "req_id", rid, "error", err, "content", string(content))
		return nil, content, fmt.Errorf("schema validation failed: %w", err)
	}

	var out llm.InvoiceFields
	if err := json.Unmarshal(content, &out); err != nil {
		c.logger.Error("llm.normalize.unmarshal_failed", "req_id", rid, "error", err)
		return nil, content, fmt.Errorf("unmarshal fields: %w", err)
	}
	return &out, content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
