package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordbok/invoice-ingest/internal/llm"
)

const goodContent = `{"header":{"supplier_name":"Nordisk Utstyr AS","date":"2024-03-05","currency":"NOK","total":"125.00"},"lines":[{"description":"Widget stor","qty":"2","uom":"pcs","unit_price":"50.00","line_total":"100.00"}]}`

func chatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func fastRetry(attempts int) llm.RetryPolicy {
	return llm.RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestNormalizeRetriesAfterRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse(goodContent))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Retry: fastRetry(3)}, nil)
	out, raw, err := c.Normalize(context.Background(), llm.NormalizeRequest{Text: "Faktura"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "125.00", out.Header.Total)
	assert.Equal(t, "Nordisk Utstyr AS", out.Header.SupplierName)
	assert.JSONEq(t, goodContent, string(raw))
}

func TestNormalizeGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Retry: fastRetry(2)}, nil)
	out, _, err := c.Normalize(context.Background(), llm.NormalizeRequest{Text: "Faktura"})
	assert.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNormalizeDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "bad-key", BaseURL: srv.URL, Retry: fastRetry(3)}, nil)
	_, _, err := c.Normalize(context.Background(), llm.NormalizeRequest{Text: "Faktura"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNormalizeSchemaBreakingContentFailsWithoutRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// header is missing the required total
		_ = json.NewEncoder(w).Encode(chatResponse(`{"header":{"currency":"NOK"},"lines":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Retry: fastRetry(3)}, nil)
	out, content, err := c.Normalize(context.Background(), llm.NormalizeRequest{Text: "Faktura"})
	assert.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.JSONEq(t, `{"header":{"currency":"NOK"},"lines":[]}`, string(content))
}

func TestNormalizeMalformedBodyFailsWithoutRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Retry: fastRetry(3)}, nil)
	out, _, err := c.Normalize(context.Background(), llm.NormalizeRequest{Text: "Faktura"})
	assert.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNormalizeDisabledWithoutCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	c := NewClient(Config{}, nil)
	assert.False(t, c.Enabled())

	out, raw, err := c.Normalize(context.Background(), llm.NormalizeRequest{Text: "Faktura"})
	assert.NoError(t, err)
	assert.Nil(t, out)
	assert.Nil(t, raw)
}
