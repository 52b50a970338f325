package transport

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var _ Stream = (*sseStream)(nil)

// sseStream reads server-sent events from a long-lived HTTP response and
// transparently re-dials through the reopen callback when the connection
// drops.
type sseStream struct {
	events    chan Event
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// OpenStream opens a server-sent-event connection for req. When the
// connection drops and reopen is non-nil, the stream re-dials with the
// request reopen returns; a nil or failing reopen terminates the stream.
func (t *HTTPTransport) OpenStream(ctx context.Context, req *Request, reopen ReopenFunc) (Stream, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	body, err := t.dialStream(streamCtx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &sseStream{events: make(chan Event), cancel: cancel}
	go s.pump(streamCtx, t, body, reopen)
	return s, nil
}

func (t *HTTPTransport) dialStream(ctx context.Context, req *Request) (io.ReadCloser, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	// The regular client enforces a request timeout, which would sever a
	// healthy long-lived stream.
	streamClient := &http.Client{Transport: t.client.Transport}
	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "[HTTPTransport.dialStream] %s", req.Path)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1<<16))
		httpResp.Body.Close()
		return nil, &StreamOpenError{StatusCode: httpResp.StatusCode, Body: body}
	}
	return httpResp.Body, nil
}

func (s *sseStream) Events() <-chan Event {
	return s.events
}

func (s *sseStream) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

func (s *sseStream) pump(ctx context.Context, t *HTTPTransport, body io.ReadCloser, reopen ReopenFunc) {
	defer close(s.events)
	for {
		s.readEvents(ctx, body)
		body.Close()

		if ctx.Err() != nil || reopen == nil {
			return
		}
		req, err := reopen(ctx)
		if err != nil {
			t.logger.Warn().Err(err).Msg("could not reopen event stream")
			return
		}
		body, err = t.dialStream(ctx, req)
		if err != nil {
			t.logger.Warn().Err(err).Msg("could not redial event stream")
			return
		}
	}
}

// readEvents decodes server-sent events until the connection fails or the
// stream context is cancelled.
func (s *sseStream) readEvents(ctx context.Context, body io.Reader) {
	scanner := bufio.NewScanner(body)
	var name string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				select {
				case s.events <- Event{Name: name, Data: strings.Join(data, "\n")}:
				case <-ctx.Done():
					return
				}
			}
			name, data = "", nil
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
}
