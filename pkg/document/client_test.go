package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sgerrors "github.com/vnykmshr/slidegate/pkg/common/errors"
	"github.com/vnykmshr/slidegate/pkg/metrics"
	"github.com/vnykmshr/slidegate/pkg/ratelimit/window"
)

func newTestClient(t *testing.T, url string, limiter window.Limiter, opts ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{URL: url, Limiter: limiter}
	for _, opt := range opts {
		opt(&cfg)
	}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

// recorder captures what the test server received.
type recorder struct {
	mu     sync.Mutex
	header http.Header
	method string
	body   []byte
}

func (rec *recorder) snapshot() (http.Header, string, []byte) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.header, rec.method, rec.body
}

func createdHandler(t *testing.T, rec *recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		if rec != nil {
			rec.mu.Lock()
			rec.header = r.Header.Clone()
			rec.method = r.Method
			rec.body = raw
			rec.mu.Unlock()
		}

		var req Request
		assert.NoError(t, json.Unmarshal(raw, &req))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"productDocument": map[string]string{"docId": "created-" + req.ProductDocument.DocID},
		})
	}
}

func TestNewClientValidation(t *testing.T) {
	limiter := window.New(time.Second, 1)

	tests := []struct {
		name   string
		config Config
	}{
		{"missing limiter", Config{}},
		{"typed nil limiter", Config{Limiter: (*window.MetricsLimiter)(nil)}},
		{"relative url", Config{URL: "/documents", Limiter: limiter}},
		{"unsupported scheme", Config{URL: "ftp://example.com", Limiter: limiter}},
		{"negative timeout", Config{Limiter: limiter, Timeout: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, sgerrors.ErrInvalidConfiguration)
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Config{Limiter: window.New(time.Second, 1)})
	require.NoError(t, err)

	assert.Equal(t, DefaultURL, client.url)
	assert.Equal(t, DefaultFormat, client.format)
	assert.Equal(t, DefaultType, client.docType)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}

func TestCreatePostsEnvelope(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(createdHandler(t, rec))
	defer server.Close()

	limiter := window.New(time.Second, 2)
	client := newTestClient(t, server.URL, limiter, func(c *Config) { c.Token = "secret" })

	res, err := client.Create(context.Background(), Sample(7), SampleSignature(7))
	require.NoError(t, err)

	assert.Equal(t, "created-7", res.DocID)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	_, err = uuid.Parse(res.RequestID)
	assert.NoError(t, err, "request id should be a uuid")

	header, method, body := rec.snapshot()
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "Bearer secret", header.Get("Authorization"))
	assert.Equal(t, res.RequestID, header.Get("X-Request-ID"))

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "MANUAL", envelope["documentFormat"])
	assert.Equal(t, "TYPE", envelope["type"])
	assert.Equal(t, "<Sign 7>", envelope["signature"])

	doc, ok := envelope["productDocument"].(map[string]interface{})
	require.True(t, ok, "productDocument should be an object")
	assert.Equal(t, "7", doc["docId"])
	assert.Equal(t, "approved", doc["docStatus"])
	assert.Equal(t, true, doc["importRequest"])
	assert.Equal(t, map[string]interface{}{"participantInn": "7"}, doc["description"])

	products, ok := doc["products"].([]interface{})
	require.True(t, ok)
	require.Len(t, products, 1)
	assert.Equal(t, "cert7", products[0].(map[string]interface{})["certificateDocument"])
}

func TestCreateWithoutToken(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(createdHandler(t, rec))
	defer server.Close()

	client := newTestClient(t, server.URL, window.New(time.Second, 1))

	_, err := client.Create(context.Background(), Sample(1), SampleSignature(1))
	require.NoError(t, err)
	header, _, _ := rec.snapshot()
	assert.Empty(t, header.Get("Authorization"))
}

func TestCreateAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
	}{
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
		{"too many requests", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			limiter := window.New(50*time.Millisecond, 1)
			client := newTestClient(t, server.URL, limiter)

			res, err := client.Create(context.Background(), Sample(1), SampleSignature(1))
			require.Error(t, err)
			assert.Nil(t, res)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "expected APIError, got %T", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, `{"error":"nope"}`, apiErr.Body)
			assert.NotEmpty(t, apiErr.RequestID)
			assert.Equal(t, tt.rateLimited, errors.Is(err, sgerrors.ErrRateLimited))
			assert.Equal(t, tt.rateLimited, sgerrors.IsRetryable(err))

			assert.Eventually(t, func() bool { return limiter.Tracked() == 0 }, time.Second, 5*time.Millisecond,
				"failed call leaked a limiter slot")
		})
	}
}

func TestCreateTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	limiter := window.New(50*time.Millisecond, 1)
	client := newTestClient(t, url, limiter)

	_, err := client.Create(context.Background(), Sample(1), SampleSignature(1))
	require.Error(t, err)

	var opErr *sgerrors.OperationError
	require.True(t, errors.As(err, &opErr), "expected OperationError, got %T", err)
	assert.Equal(t, "Create", opErr.Operation)
	assert.Contains(t, err.Error(), "send request")

	assert.Eventually(t, func() bool { return limiter.Tracked() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCreateMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, window.New(time.Second, 1))

	_, err := client.Create(context.Background(), Sample(1), SampleSignature(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestCreateCanceledWhileQueued(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		_, _ = w.Write([]byte(`{"productDocument":{"docId":"x"}}`))
	}))
	defer server.Close()

	limiter := window.New(time.Second, 1)
	limiter.Acquire()
	client := newTestClient(t, server.URL, limiter)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Create(ctx, Sample(1), SampleSignature(1))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	assert.Zero(t, calls, "request sent without admission")
	mu.Unlock()
	assert.Equal(t, 1, limiter.Tracked())
}

func TestCreateRespectsWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}

	const capacity = 3
	span := 100 * time.Millisecond

	var (
		mu    sync.Mutex
		times []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(`{"productDocument":{"docId":"ok"}}`))
	}))
	defer server.Close()

	limiter := window.New(span, capacity)
	client := newTestClient(t, server.URL, limiter)

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := client.Create(context.Background(), Sample(n), SampleSignature(n))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	require.Len(t, times, 9)
	for i := 0; i+capacity < len(times); i++ {
		assert.GreaterOrEqual(t, times[i+capacity].Sub(times[i]), span-25*time.Millisecond,
			"requests %d and %d too close", i, i+capacity)
	}
}

func TestCreateRecordsMetrics(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"productDocument":{"docId":"m"}}`))
	}))
	defer server.Close()

	reg := metrics.RegistryFor(metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()})
	client := newTestClient(t, server.URL, window.New(time.Millisecond, 10), func(c *Config) { c.Metrics = reg })

	_, err := client.Create(context.Background(), Sample(1), SampleSignature(1))
	require.NoError(t, err)

	status.Store(http.StatusBadGateway)
	_, err = client.Create(context.Background(), Sample(2), SampleSignature(2))
	require.Error(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(reg.DocumentRequests.WithLabelValues(outcomeCreated)))
	assert.Equal(t, 1.0, promtest.ToFloat64(reg.DocumentRequests.WithLabelValues(outcomeRejected)))
}

func TestCreateLogs(t *testing.T) {
	server := httptest.NewServer(createdHandler(t, nil))
	defer server.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	client := newTestClient(t, server.URL, window.New(time.Second, 1), func(c *Config) { c.Logger = &logger })

	res, err := client.Create(context.Background(), Sample(3), SampleSignature(3))
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "document created", entry["message"])
	assert.Equal(t, "document", entry["component"])
	assert.Equal(t, res.RequestID, entry["request_id"])
	assert.Equal(t, "created-3", entry["created_id"])
}

func TestCreateHTTPTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, window.New(time.Second, 1), func(c *Config) {
		c.Timeout = 20 * time.Millisecond
	})

	_, err := client.Create(context.Background(), Sample(1), SampleSignature(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, sgerrors.ErrTimeout)
	assert.True(t, sgerrors.IsRetryable(err))
}
