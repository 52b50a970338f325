// Package transport defines the HTTP and event-stream transport the SDK uses
// to reach the backend, and the request/response shapes exchanged with it.
package transport

import (
	"context"
	"fmt"
)

// Request is a plain wire request: the transport attaches no credentials and
// applies no retry policy of its own.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
}

// Response carries the raw result of a dispatched request. Non-2xx statuses
// are returned as responses, not errors; interpreting them is the caller's
// concern.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Event is a single server-sent event.
type Event struct {
	Name string
	Data string
}

// Stream is a long-lived event stream. Events is closed once the stream
// terminates; Close is safe to call more than once.
type Stream interface {
	Events() <-chan Event
	Close() error
}

// StreamOpenError reports a non-2xx response to a stream-open request. The
// body is preserved so callers can interpret the server's error document.
type StreamOpenError struct {
	StatusCode int
	Body       []byte
}

func (e *StreamOpenError) Error() string {
	return fmt.Sprintf("stream open failed with status %d", e.StatusCode)
}

// ReopenFunc supplies a replacement request when a live stream drops, so the
// new connection can carry a freshly issued session token.
type ReopenFunc func(ctx context.Context) (*Request, error)

// Transport dispatches requests to the backend.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
	OpenStream(ctx context.Context, req *Request, reopen ReopenFunc) (Stream, error)
}
