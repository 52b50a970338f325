package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

var _ Transport = (*HTTPTransport)(nil)

// HTTPTransport dispatches requests over net/http against a fixed base URL.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// HTTPTransportOption modifies an HTTPTransport instance.
type HTTPTransportOption func(*HTTPTransport)

// WithHTTPClient replaces the underlying http.Client (primarily for testing
// and for callers that need custom TLS or proxy settings).
func WithHTTPClient(client *http.Client) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.client = client
	}
}

// WithTransportLogger sets the logger used for dispatch diagnostics.
func WithTransportLogger(logger zerolog.Logger) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// NewHTTPTransport creates a transport rooted at baseURL.
func NewHTTPTransport(baseURL string, options ...HTTPTransportOption) (*HTTPTransport, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, errors.Errorf("[NewHTTPTransport] invalid base URL %q", baseURL)
	}
	t := &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(t)
	}
	return t, nil
}

// RoundTrip dispatches req and returns the raw response. Only transport-level
// failures (connection, context cancellation, unreadable body) are errors.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	t.logger.Debug().Str("method", req.Method).Str("path", req.Path).Msg("dispatching request")
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "[HTTPTransport.RoundTrip] %s %s", req.Method, req.Path)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[HTTPTransport.RoundTrip] reading response body for %s", req.Path)
	}

	headers := make(map[string]string, len(httpResp.Header))
	for name := range httpResp.Header {
		headers[name] = httpResp.Header.Get(name)
	}
	return &Response{StatusCode: httpResp.StatusCode, Headers: headers, Body: body}, nil
}

func (t *HTTPTransport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.Path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[HTTPTransport.buildRequest] %s %s", req.Method, req.Path)
	}
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}
