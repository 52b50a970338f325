package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/gragonvlad/stitch-go-sdk/ejson"
	"github.com/gragonvlad/stitch-go-sdk/internal/utils"
	"github.com/gragonvlad/stitch-go-sdk/transport"
)

// ExecuteAuthenticatedRequest attaches the session's bearer token to req,
// dispatches it, and on an invalid-session response performs at most one
// refresh-and-retry cycle before propagating the failure.
func (a *Auth) ExecuteAuthenticatedRequest(ctx context.Context, req *Request) (*transport.Response, error) {
	info := a.snapshot()
	if !info.loggedIn() {
		return nil, errors.WithStack(MustAuthenticateErr)
	}
	if req.StartedAt.IsZero() {
		req.StartedAt = a.now()
	}

	token := utils.Value(info.AccessToken)
	if req.UseRefreshToken {
		token = utils.Value(info.RefreshToken)
	}

	resp, err := a.roundTrip(ctx, req, map[string]string{"Authorization": "Bearer " + token})
	if err != nil {
		return a.handleInvalidSession(ctx, req, err)
	}
	return resp, nil
}

// ExecuteAuthenticatedRequestDecode runs ExecuteAuthenticatedRequest and
// decodes the response body into out. Decode failures are reported as
// decoding request errors.
func (a *Auth) ExecuteAuthenticatedRequestDecode(ctx context.Context, req *Request, out any) error {
	resp, err := a.ExecuteAuthenticatedRequest(ctx, req)
	if err != nil {
		return err
	}
	if err := ejson.Unmarshal(resp.Body, out); err != nil {
		return &RequestError{Kind: RequestErrorDecoding, Err: err}
	}
	return nil
}

// OpenAuthenticatedStream opens a long-lived event stream with the session
// token appended as a query parameter, applying the same single
// refresh-and-retry semantics as ExecuteAuthenticatedRequest. When a live
// stream drops, it is re-opened with whatever token is current at that
// moment.
func (a *Auth) OpenAuthenticatedStream(ctx context.Context, req *Request) (transport.Stream, error) {
	info := a.snapshot()
	if !info.loggedIn() {
		return nil, errors.WithStack(MustAuthenticateErr)
	}
	if req.StartedAt.IsZero() {
		req.StartedAt = a.now()
	}

	stream, err := a.transport.OpenStream(ctx, a.streamRequest(req, utils.Value(info.AccessToken)), a.streamReopen(req))
	if err == nil {
		return stream, nil
	}

	var openErr *transport.StreamOpenError
	if errors.As(err, &openErr) {
		err = a.serviceError(openErr.StatusCode, openErr.Body)
	} else {
		err = &RequestError{Kind: RequestErrorTransport, Err: err}
	}

	if !IsInvalidSession(err) {
		return nil, err
	}
	if req.UseRefreshToken || !req.ShouldRefreshOnFailure {
		a.clearAuthAfterInvalidSession()
		return nil, err
	}
	if refreshErr := a.refreshIfStale(ctx, req.StartedAt); refreshErr != nil {
		return nil, refreshErr
	}
	retry := *req
	retry.ShouldRefreshOnFailure = false
	return a.OpenAuthenticatedStream(ctx, &retry)
}

func (a *Auth) streamRequest(req *Request, token string) *transport.Request {
	sep := "?"
	if strings.Contains(req.Path, "?") {
		sep = "&"
	}
	return &transport.Request{
		Method: req.Method,
		Path:   req.Path + sep + streamSessionTokenParam + "=" + url.QueryEscape(token),
	}
}

func (a *Auth) streamReopen(req *Request) transport.ReopenFunc {
	return func(context.Context) (*transport.Request, error) {
		info := a.snapshot()
		if !info.loggedIn() {
			return nil, errors.WithStack(&ClientError{Code: ClientErrorLoggedOutDuringRequest})
		}
		return a.streamRequest(req, utils.Value(info.AccessToken)), nil
	}
}

// roundTrip dispatches a single wire request: transport failures become
// transport request errors and non-2xx responses become service errors.
func (a *Auth) roundTrip(ctx context.Context, req *Request, headers map[string]string) (*transport.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = ejson.Marshal(req.Body); err != nil {
			return nil, &RequestError{Kind: RequestErrorDecoding, Err: err}
		}
	}

	resp, err := a.transport.RoundTrip(ctx, &transport.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, &RequestError{Kind: RequestErrorTransport, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, a.serviceError(resp.StatusCode, resp.Body)
	}
	return resp, nil
}

func (a *Auth) serviceError(statusCode int, body []byte) *ServiceError {
	serviceErr := &ServiceError{
		StatusCode: statusCode,
		Code:       ServiceErrorUnknown,
		Message:    http.StatusText(statusCode),
	}
	var apiErr struct {
		Error     string `bson:"error"`
		ErrorCode string `bson:"error_code"`
	}
	if err := ejson.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error != "" {
			serviceErr.Message = apiErr.Error
		}
		if apiErr.ErrorCode != "" {
			serviceErr.Code = ServiceErrorCode(apiErr.ErrorCode)
		}
	}
	return serviceErr
}

// handleInvalidSession implements the failure half of the executor: an
// invalid-session error either triggers the one permitted refresh-and-retry
// cycle or clears auth state and propagates.
func (a *Auth) handleInvalidSession(ctx context.Context, req *Request, err error) (*transport.Response, error) {
	if !IsInvalidSession(err) {
		return nil, err
	}
	if req.UseRefreshToken || !req.ShouldRefreshOnFailure {
		a.clearAuthAfterInvalidSession()
		return nil, err
	}
	if refreshErr := a.refreshIfStale(ctx, req.StartedAt); refreshErr != nil {
		return nil, refreshErr
	}
	retry := *req
	retry.ShouldRefreshOnFailure = false
	return a.ExecuteAuthenticatedRequest(ctx, &retry)
}

// clearAuthAfterInvalidSession clears state because the server no longer
// accepts the session. The triggering error is what propagates to the
// caller; a persistence failure here is only logged.
func (a *Auth) clearAuthAfterInvalidSession() {
	if err := a.clearAuth(); err != nil {
		a.logger.Warn().Err(err).Msg("could not persist cleared auth state")
	}
}
