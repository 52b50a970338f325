package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/gragonvlad/stitch-go-sdk/internal/utils"
)

// refreshIfStale refreshes the access token unless it was already issued at
// or after startedAt. When several requests fail concurrently against the
// same stale token, a refresh that finished after a given request began
// satisfies that request too, so it skips the redundant round trip. An
// undecodable token always refreshes.
func (a *Auth) refreshIfStale(ctx context.Context, startedAt time.Time) error {
	info := a.snapshot()
	if !info.loggedIn() {
		return errors.WithStack(&ClientError{Code: ClientErrorLoggedOutDuringRequest})
	}
	if issuedAt, err := jwtIssuedAt(utils.Value(info.AccessToken)); err == nil && !issuedAt.Before(startedAt) {
		return nil
	}
	return a.RefreshAccessToken(ctx)
}

// jwtIssuedAt extracts the iat claim without verifying the signature; the
// token is the backend's, and only its timestamp matters here.
func jwtIssuedAt(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, errors.Wrap(err, "[jwtIssuedAt] parsing access token")
	}
	issuedAt, err := claims.GetIssuedAt()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[jwtIssuedAt] reading iat claim")
	}
	if issuedAt == nil {
		return time.Time{}, errors.New("[jwtIssuedAt] access token has no iat claim")
	}
	return issuedAt.Time, nil
}

// RefreshAccessToken obtains a new access token using the refresh token and
// persists the updated state. Concurrent callers share a single in-flight
// refresh.
func (a *Auth) RefreshAccessToken(ctx context.Context) error {
	_, err, _ := a.refreshGroup.Do(refreshSingleflightKey, func() (any, error) {
		return nil, a.doRefresh(ctx)
	})
	return err
}

func (a *Auth) doRefresh(ctx context.Context) error {
	req := a.newRequest(http.MethodPost, a.routes.SessionRoute())
	req.UseRefreshToken = true
	req.ShouldRefreshOnFailure = false

	var api apiAuthInfo
	if err := a.ExecuteAuthenticatedRequestDecode(ctx, req, &api); err != nil {
		return err
	}

	a.lock.Lock()
	a.authInfo = a.authInfo.merge(api)
	info := a.authInfo
	a.lock.Unlock()

	if err := a.store.save(info); err != nil {
		return couldNotPersistAuthErr(err)
	}
	return nil
}
