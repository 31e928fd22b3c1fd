// Package apifox talks to the Apifox open API. Every call goes through one
// request helper that normalises success and failure; export and import of
// OpenAPI documents are built on top of it.
package apifox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/telemetry"
)

const (
	// DefaultBaseURL is the public open API root.
	DefaultBaseURL = "https://api.apifox.com/v1"
	// DefaultAPIVersion is sent in X-Apifox-Api-Version.
	DefaultAPIVersion = "2024-03-28"
	// DefaultTimeout bounds one request.
	DefaultTimeout = 30 * time.Second

	maxErrorDetail = 200
	tracerName     = "github.com/localrivet/apifoxmcp/internal/apifox"
)

// Result is a successful reply from the platform
type Result struct {
	StatusCode int
	// Data is the decoded JSON body. An empty body decodes to an empty map and a
	// non-JSON body is kept under "raw".
	Data map[string]any
	// Raw is the undecoded body.
	Raw []byte
}

// Options configures a Client
type Options struct {
	BaseURL           string
	Token             string
	ProjectID         string
	APIVersion        string
	Locale            string
	OASVersion        string
	Timeout           time.Duration
	RequestsPerSecond float64

	// HTTPClient overrides the transport; its Transport is wrapped for tracing.
	HTTPClient *http.Client
	Metrics    *telemetry.Collector
	Logger     *slog.Logger
}

// Client is the Apifox open API client
type Client struct {
	baseURL    string
	token      string
	projectID  string
	apiVersion string
	locale     string
	oasVersion string

	httpClient *http.Client
	limiter    *rate.Limiter
	exports    singleflight.Group
	tracer     trace.Tracer
	metrics    *telemetry.Collector
	logger     *slog.Logger
}

// NewClient creates a Client from the given options
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.Locale == "" {
		opts.Locale = "zh-CN"
	}
	if opts.OASVersion == "" {
		opts.OASVersion = "3.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	base := http.DefaultTransport
	if opts.HTTPClient != nil && opts.HTTPClient.Transport != nil {
		base = opts.HTTPClient.Transport
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		projectID:  opts.ProjectID,
		apiVersion: opts.APIVersion,
		locale:     opts.Locale,
		oasVersion: opts.OASVersion,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		limiter: limiter,
		tracer:  otel.Tracer(tracerName),
		metrics: opts.Metrics,
		logger:  opts.Logger.With("component", "apifox"),
	}
}

// ProjectID returns the configured project id
func (c *Client) ProjectID() string {
	return c.projectID
}

// CheckConfig reports a configuration error when the token or project id is missing
func (c *Client) CheckConfig() error {
	if c.token == "" {
		return errortypes.ConfigError(errors.New("APIFOX_TOKEN is not set"),
			"missing APIFOX_TOKEN: set your Apifox access token in the environment")
	}
	if c.projectID == "" {
		return errortypes.ConfigError(errors.New("APIFOX_PROJECT_ID is not set"),
			"missing APIFOX_PROJECT_ID: set the target project id in the environment")
	}
	return nil
}

// Request sends one call to the open API. endpoint is relative to the base URL
// and may already carry a query string. Status 200, 201 and 204 are success;
// anything else becomes a remote error carrying the status code.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, query url.Values) (*Result, error) {
	if err := c.CheckConfig(); err != nil {
		return nil, err
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errortypes.InternalError(err, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	label := c.metricEndpoint(endpoint)
	ctx, span := c.tracer.Start(ctx, "apifox "+method+" "+label,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("apifox.endpoint", label),
		))
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rate limit wait")
			return nil, classifyTransportError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errortypes.InternalError(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Apifox-Api-Version", c.apiVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(method, label, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		appErr := classifyTransportError(err)
		c.logger.Warn("Request to Apifox failed", "method", method, "endpoint", label, "error", err)
		return nil, appErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.metrics.RecordRequest(method, label, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classifyTransportError(err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		c.logger.Debug("Request to Apifox succeeded", "method", method, "endpoint", label, "status", resp.StatusCode)
		return &Result{StatusCode: resp.StatusCode, Data: decodeBody(raw), Raw: raw}, nil
	}

	detail := errorDetail(raw)
	span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	c.logger.Warn("Apifox returned an error", "method", method, "endpoint", label, "status", resp.StatusCode, "detail", detail)
	return nil, errortypes.RemoteError(resp.StatusCode, detail).
		WithField("endpoint", label)
}

// metricEndpoint strips the query and the project id so metric labels stay bounded
func (c *Client) metricEndpoint(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	if c.projectID != "" {
		endpoint = strings.ReplaceAll(endpoint, "/"+c.projectID+"/", "/{id}/")
	}
	return endpoint
}

func decodeBody(raw []byte) map[string]any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	if data == nil {
		data = map[string]any{}
	}
	return data
}

// errorDetail picks message, errorMessage or error from a JSON error body,
// falling back to the leading bytes of the body.
func errorDetail(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"message", "errorMessage", "error"} {
			if s, ok := body[key].(string); ok && s != "" {
				return s
			}
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "unknown error"
	}
	if len(text) > maxErrorDetail {
		text = text[:maxErrorDetail]
	}
	return text
}

func classifyTransportError(err error) *errortypes.AppError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errortypes.TimeoutError(err, "request timed out, check your network connection")
	}
	return errortypes.NetworkError(err, "network connection failed")
}
