package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffStaysWithinJitterBounds(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}

	for i := 0; i < 50; i++ {
		d := p.Backoff(0)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 700*time.Millisecond)
	}

	// deep attempts are capped before jitter
	for i := 0; i < 50; i++ {
		d := p.Backoff(10)
		assert.LessOrEqual(t, d, 8*time.Second+8*time.Second*2/5)
	}
}

func TestBackoffDoubles(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Minute}
	assert.GreaterOrEqual(t, p.Backoff(2), 4*time.Second)
}

func TestRetriable(t *testing.T) {
	assert.True(t, Retriable(0, errors.New("connection refused")))
	assert.True(t, Retriable(429, errors.New("non-2xx status: 429")))
	assert.True(t, Retriable(500, errors.New("non-2xx status: 500")))
	assert.True(t, Retriable(503, errors.New("non-2xx status: 503")))
	assert.False(t, Retriable(400, errors.New("non-2xx status: 400")))
	assert.False(t, Retriable(401, errors.New("non-2xx status: 401")))
}
