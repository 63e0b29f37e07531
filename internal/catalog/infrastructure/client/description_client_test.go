package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReturnsTrimmedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("  Lorem ipsum dolor sit amet.\n"))
	}))
	defer srv.Close()

	c := NewDescriptionClient(srv.URL, time.Second)
	got, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Lorem ipsum dolor sit amet.", got)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewDescriptionClient(srv.URL, time.Second)
	c.http.SetRetryCount(0)

	for i := 0; i < 3; i++ {
		_, err := c.Fetch(context.Background())
		require.Error(t, err)
	}
	before := hits.Load()

	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, before, hits.Load())
}
