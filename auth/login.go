package auth

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/gragonvlad/stitch-go-sdk/auth/credentials"
	"github.com/gragonvlad/stitch-go-sdk/ejson"
	"github.com/gragonvlad/stitch-go-sdk/internal/utils"
)

// LoginWithCredential authenticates the credential and returns the
// materialized user.
//
// A credential that already carries server-issued auth material skips the
// network login. When a session is already active, a credential whose
// capabilities permit it reuses that session for the same provider type;
// otherwise the current session is logged out first, so state from two
// identities never mixes.
func (a *Auth) LoginWithCredential(ctx context.Context, credential credentials.Credential) (User, error) {
	if credential == nil {
		return nil, errors.New("[Auth.LoginWithCredential] credential is required")
	}

	if carrier, ok := credential.(credentials.ResponseCarrier); ok {
		return a.processLoginResponse(ctx, credential, apiAuthInfoFromResponse(carrier.AuthResponse()), false)
	}

	info := a.snapshot()
	if !info.loggedIn() {
		return a.doLogin(ctx, credential, false)
	}
	if credential.Capabilities().ReusesExistingSession &&
		utils.Value(info.LoggedInProviderType) == credential.ProviderType() {
		return a.User(), nil
	}

	if err := a.Logout(ctx); err != nil {
		return nil, err
	}
	return a.doLogin(ctx, credential, false)
}

// LinkWithCredential associates an additional credential with the logged-in
// identity. The supplied user must still be the current user; a stale user
// reference fails with UserNoLongerValidErr.
func (a *Auth) LinkWithCredential(ctx context.Context, user User, credential credentials.Credential) (User, error) {
	if credential == nil {
		return nil, errors.New("[Auth.LinkWithCredential] credential is required")
	}
	current := a.User()
	if user == nil || current == nil || current.ID() != user.ID() {
		return nil, errors.WithStack(UserNoLongerValidErr)
	}
	return a.doLogin(ctx, credential, true)
}

// Logout ends the current session. The session-delete request is best
// effort: local state is cleared and persisted whether or not the network
// call succeeds, so stale credentials never outlive a logout. Logging out
// while logged out is a no-op.
func (a *Auth) Logout(ctx context.Context) error {
	if !a.IsLoggedIn() {
		return nil
	}
	req := a.newRequest(http.MethodDelete, a.routes.SessionRoute())
	req.UseRefreshToken = true
	req.ShouldRefreshOnFailure = false
	if _, err := a.ExecuteAuthenticatedRequest(ctx, req); err != nil {
		a.logger.Debug().Err(err).Msg("session delete failed during logout")
	}
	return a.clearAuth()
}

func (a *Auth) doLogin(ctx context.Context, credential credentials.Credential, asLink bool) (User, error) {
	api, err := a.loginRequest(ctx, credential, asLink)
	if err != nil {
		return nil, err
	}
	return a.processLoginResponse(ctx, credential, api, asLink)
}

func (a *Auth) loginRequest(ctx context.Context, credential credentials.Credential, asLink bool) (apiAuthInfo, error) {
	payload := ejson.Document{"options": ejson.Document{"device": a.deviceInfo()}}
	for key, value := range credential.Material() {
		payload[key] = value
	}

	var api apiAuthInfo
	if asLink {
		req := a.newRequest(http.MethodPost, a.routes.ProviderLinkRoute(credential.ProviderName()))
		req.Body = payload
		err := a.ExecuteAuthenticatedRequestDecode(ctx, req, &api)
		return api, err
	}

	req := a.newRequest(http.MethodPost, a.routes.ProviderLoginRoute(credential.ProviderName()))
	req.Body = payload
	resp, err := a.roundTrip(ctx, req, nil)
	if err != nil {
		return api, err
	}
	if err := ejson.Unmarshal(resp.Body, &api); err != nil {
		return api, &RequestError{Kind: RequestErrorDecoding, Err: err}
	}
	return api, nil
}

// processLoginResponse runs the two-phase commit: the merged auth info and a
// provisional user become current immediately, so the profile fetch can
// itself authenticate. The profile fetch succeeding is the commit point; on
// failure a link restores the previous session while a fresh login clears
// state entirely. A failed link must not log the user out of their prior,
// still-valid session.
func (a *Auth) processLoginResponse(ctx context.Context, credential credentials.Credential, api apiAuthInfo, asLink bool) (User, error) {
	a.lock.Lock()
	prevInfo := a.authInfo
	prevUser := a.currentUser
	newInfo := prevInfo.merge(api).withProvider(credential.ProviderType(), credential.ProviderName())
	a.authInfo = newInfo
	a.currentUser = a.hooks.MakeUser(
		utils.Value(newInfo.UserID),
		credential.ProviderType(),
		credential.ProviderName(),
		Profile{},
	)
	a.lock.Unlock()

	profile, err := a.fetchProfile(ctx)
	if err != nil {
		if asLink {
			a.lock.Lock()
			a.authInfo = prevInfo
			a.currentUser = prevUser
			a.lock.Unlock()
		} else {
			if clearErr := a.clearAuth(); clearErr != nil {
				a.logger.Warn().Err(clearErr).Msg("could not persist cleared auth state")
			}
		}
		return nil, err
	}

	final := newInfo.withProfile(profile)
	a.lock.Lock()
	a.authInfo = final
	user := a.hooks.MakeUser(
		utils.Value(final.UserID),
		credential.ProviderType(),
		credential.ProviderName(),
		profile,
	)
	a.currentUser = user
	a.lock.Unlock()

	if err := a.store.save(final); err != nil {
		return nil, couldNotPersistAuthErr(err)
	}
	a.notifyAuthEvent()
	return user, nil
}

func (a *Auth) fetchProfile(ctx context.Context) (Profile, error) {
	req := a.newRequest(http.MethodGet, a.routes.ProfileRoute())
	var profile Profile
	err := a.ExecuteAuthenticatedRequestDecode(ctx, req, &profile)
	return profile, err
}

// clearAuth is the terminal transition: state becomes the logged-out
// AuthInfo, the user is cleared, and the change is persisted and announced.
// A persistence failure is surfaced even though the in-memory transition has
// already happened.
func (a *Auth) clearAuth() error {
	a.lock.Lock()
	if !a.authInfo.loggedIn() {
		a.lock.Unlock()
		return nil
	}
	a.authInfo = a.authInfo.loggedOut()
	info := a.authInfo
	a.currentUser = nil
	a.lock.Unlock()

	var saveErr error
	if err := a.store.save(info); err != nil {
		saveErr = couldNotPersistAuthErr(err)
	}
	a.notifyAuthEvent()
	return saveErr
}

func apiAuthInfoFromResponse(response credentials.AuthResponse) apiAuthInfo {
	var api apiAuthInfo
	if response.UserID != "" {
		api.UserID = utils.Ptr(response.UserID)
	}
	if response.DeviceID != "" {
		api.DeviceID = utils.Ptr(response.DeviceID)
	}
	if response.AccessToken != "" {
		api.AccessToken = utils.Ptr(response.AccessToken)
	}
	if response.RefreshToken != "" {
		api.RefreshToken = utils.Ptr(response.RefreshToken)
	}
	return api
}
