package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	sgctx "github.com/vnykmshr/slidegate/pkg/common/context"
	sgerrors "github.com/vnykmshr/slidegate/pkg/common/errors"
	"github.com/vnykmshr/slidegate/pkg/common/validation"
	"github.com/vnykmshr/slidegate/pkg/metrics"
	"github.com/vnykmshr/slidegate/pkg/ratelimit/window"
)

const (
	// DefaultURL is the production document-creation endpoint.
	DefaultURL = "https://ismp.crpt.ru/api/v3/lk/documents/create"

	// DefaultTimeout bounds a single HTTP call.
	DefaultTimeout = 10 * time.Second

	// DefaultFormat is the documentFormat sent when Config leaves it empty.
	DefaultFormat = "MANUAL"

	// DefaultType is the document type sent when Config leaves it empty.
	DefaultType = "TYPE"
)

// Outcome labels recorded in the document metrics.
const (
	outcomeCreated  = "created"
	outcomeRejected = "rejected"
	outcomeError    = "error"
	outcomeCanceled = "canceled"
)

// Config configures a Client.
type Config struct {
	// URL of the create endpoint. Defaults to DefaultURL.
	URL string

	// Token is sent as a bearer token when set.
	Token string

	// Timeout bounds each HTTP call. Defaults to DefaultTimeout.
	// Ignored when HTTPClient is set.
	Timeout time.Duration

	// DocumentFormat and Type fill the request envelope.
	DocumentFormat string
	Type           string

	// Limiter admits every call. Required.
	Limiter window.Limiter

	// Logger receives request logs. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client

	// Metrics records request outcomes when set.
	Metrics *metrics.Registry
}

// Result describes a created document.
type Result struct {
	DocID      string
	StatusCode int
	RequestID  string

	// Waited is how long the call was held back by the limiter.
	Waited time.Duration
}

// Client creates documents through the API, one limiter admission per call.
type Client struct {
	url        string
	token      string
	format     string
	docType    string
	limiter    window.Limiter
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Registry
}

// NewClient validates config and returns a Client.
func NewClient(config Config) (*Client, error) {
	if err := validation.ValidateNotNil("document", "limiter", config.Limiter); err != nil {
		return nil, err
	}
	if config.URL == "" {
		config.URL = DefaultURL
	}
	if err := validation.ValidateHTTPURL("document", "url", config.URL); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("document", "timeout", config.Timeout); err != nil {
		return nil, err
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.DocumentFormat == "" {
		config.DocumentFormat = DefaultFormat
	}
	if config.Type == "" {
		config.Type = DefaultType
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Client{
		url:        config.URL,
		token:      config.Token,
		format:     config.DocumentFormat,
		docType:    config.Type,
		limiter:    config.Limiter,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "document").Logger(),
		metrics:    config.Metrics,
	}, nil
}

// Create posts doc with its signature once the limiter admits the call.
func (c *Client) Create(ctx context.Context, doc Document, signature string) (*Result, error) {
	body, err := json.Marshal(Request{
		DocumentFormat:  c.format,
		ProductDocument: doc,
		Type:            c.docType,
		Signature:       signature,
	})
	if err != nil {
		return nil, sgerrors.NewOperationError("document", "Create", fmt.Errorf("encode request: %w", err))
	}

	requestID := uuid.NewString()
	log := c.logger.With().Str("request_id", requestID).Str("doc_id", doc.DocID).Logger()

	var (
		result   *Result
		admitted bool
	)
	queued := time.Now()
	err = c.limiter.Do(ctx, func(ctx context.Context) error {
		admitted = true
		waited := time.Since(queued)
		if waited > 0 {
			log.Debug().Dur("waited", waited).Msg("admitted by limiter")
		}

		res, err := c.post(ctx, body, requestID, log)
		if err != nil {
			return err
		}
		res.Waited = waited
		result = res
		return nil
	})
	if err != nil {
		if !admitted {
			log.Debug().Err(err).Bool("deadline", sgctx.IsTimedOut(ctx)).Msg("gave up waiting for admission")
			c.observe(outcomeCanceled, 0)
			return nil, err
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, sgerrors.NewOperationError("document", "Create", err).WithContext("request " + requestID)
	}

	log.Info().Str("created_id", result.DocID).Dur("waited", result.Waited).Msg("document created")
	return result, nil
}

func (c *Client) post(ctx context.Context, body []byte, requestID string, log zerolog.Logger) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("request failed")
		c.observe(outcomeError, duration)
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("send request: %w: %w", sgerrors.ErrTimeout, err)
		}
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn().Int("status", resp.StatusCode).Dur("duration", duration).Msg("request rejected")
		c.observe(outcomeRejected, duration)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw), RequestID: requestID}
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.observe(outcomeError, duration)
		return nil, fmt.Errorf("decode response: %w", err)
	}

	log.Debug().Int("status", resp.StatusCode).Dur("duration", duration).Msg("request completed")
	c.observe(outcomeCreated, duration)

	return &Result{
		DocID:      decoded.ProductDocument.DocID,
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
	}, nil
}

func (c *Client) observe(outcome string, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.DocumentRequests.WithLabelValues(outcome).Inc()
	if duration > 0 {
		c.metrics.DocumentDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}
