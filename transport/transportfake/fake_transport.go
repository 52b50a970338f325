package transportfake

import (
	"context"
	"errors"
	"sync"

	"github.com/gragonvlad/stitch-go-sdk/transport"
)

var _ transport.Transport = (*FakeTransport)(nil)

// Responder produces the response for one dispatched request.
type Responder func(req *transport.Request) (*transport.Response, error)

// RespondJSON builds a responder returning a fixed status and JSON body.
func RespondJSON(status int, body string) Responder {
	return func(*transport.Request) (*transport.Response, error) {
		return &transport.Response{
			StatusCode: status,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(body),
		}, nil
	}
}

// RespondError builds a responder that fails at the transport level.
func RespondError(err error) Responder {
	return func(*transport.Request) (*transport.Response, error) {
		return nil, err
	}
}

// FakeTransport replays a scripted queue of responders and records every
// request it sees.
type FakeTransport struct {
	lock       sync.Mutex
	responders []Responder
	requests   []*transport.Request
	reopen     transport.ReopenFunc
	stream     *FakeStream
	streamErr  error
}

func NewFakeTransport(responders ...Responder) *FakeTransport {
	return &FakeTransport{responders: responders}
}

// Enqueue appends responders to the script.
func (ft *FakeTransport) Enqueue(responders ...Responder) {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	ft.responders = append(ft.responders, responders...)
}

func (ft *FakeTransport) RoundTrip(_ context.Context, req *transport.Request) (*transport.Response, error) {
	ft.lock.Lock()
	ft.requests = append(ft.requests, req)
	if len(ft.responders) == 0 {
		ft.lock.Unlock()
		return nil, errors.New("fake transport: no responder scripted")
	}
	responder := ft.responders[0]
	ft.responders = ft.responders[1:]
	ft.lock.Unlock()
	return responder(req)
}

// FailNextStreamWith makes the next OpenStream call fail with err.
func (ft *FakeTransport) FailNextStreamWith(err error) {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	ft.streamErr = err
}

func (ft *FakeTransport) OpenStream(_ context.Context, req *transport.Request, reopen transport.ReopenFunc) (transport.Stream, error) {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	ft.requests = append(ft.requests, req)
	if ft.streamErr != nil {
		err := ft.streamErr
		ft.streamErr = nil
		return nil, err
	}
	ft.reopen = reopen
	ft.stream = NewFakeStream()
	return ft.stream, nil
}

// Requests returns every request dispatched so far, oldest first.
func (ft *FakeTransport) Requests() []*transport.Request {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	out := make([]*transport.Request, len(ft.requests))
	copy(out, ft.requests)
	return out
}

// LastRequest returns the most recent request, or nil when none were made.
func (ft *FakeTransport) LastRequest() *transport.Request {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	if len(ft.requests) == 0 {
		return nil
	}
	return ft.requests[len(ft.requests)-1]
}

// Stream returns the most recently opened fake stream, or nil.
func (ft *FakeTransport) Stream() *FakeStream {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	return ft.stream
}

// Reopen invokes the reopen callback captured from OpenStream, simulating a
// dropped connection, and records the replacement request.
func (ft *FakeTransport) Reopen(ctx context.Context) (*transport.Request, error) {
	ft.lock.Lock()
	reopen := ft.reopen
	ft.lock.Unlock()
	if reopen == nil {
		return nil, errors.New("fake transport: no stream open")
	}
	req, err := reopen(ctx)
	if err != nil {
		return nil, err
	}
	ft.lock.Lock()
	ft.requests = append(ft.requests, req)
	ft.lock.Unlock()
	return req, nil
}

var _ transport.Stream = (*FakeStream)(nil)

// FakeStream is a test-controlled event stream.
type FakeStream struct {
	events    chan transport.Event
	closeOnce sync.Once
}

func NewFakeStream() *FakeStream {
	return &FakeStream{events: make(chan transport.Event, 16)}
}

// Emit delivers an event to the stream's consumer.
func (fs *FakeStream) Emit(event transport.Event) {
	fs.events <- event
}

func (fs *FakeStream) Events() <-chan transport.Event {
	return fs.events
}

func (fs *FakeStream) Close() error {
	fs.closeOnce.Do(func() { close(fs.events) })
	return nil
}
