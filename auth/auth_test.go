package auth_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gragonvlad/stitch-go-sdk/auth"
	"github.com/gragonvlad/stitch-go-sdk/auth/credentials"
	"github.com/gragonvlad/stitch-go-sdk/ejson"
	"github.com/gragonvlad/stitch-go-sdk/storage"
	"github.com/gragonvlad/stitch-go-sdk/transport"
	"github.com/gragonvlad/stitch-go-sdk/transport/transportfake"
	"github.com/stretchr/testify/require"
)

const (
	testAppID          = "test-app"
	authInfoKey        = "auth_info"
	loginPath          = "/api/client/v2.0/app/test-app/auth/providers/local-userpass/login"
	sessionPath        = "/api/client/v2.0/auth/session"
	profilePath        = "/api/client/v2.0/auth/profile"
	profileBody        = `{"type":"normal","data":{"name":"Alice","email":"alice@example.com"},"identities":[{"id":"i1","provider_type":"local-userpass"}]}`
	invalidSessionBody = `{"error":"invalid session","error_code":"InvalidSession"}`
)

// makeJWT builds an unsigned-but-well-formed access token with the given
// issuance time.
func makeJWT(issuedAt time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(
		`{"sub":"u1","iat":%d,"exp":%d}`, issuedAt.Unix(), issuedAt.Add(30*time.Minute).Unix())))
	return header + "." + payload + ".c2ln"
}

func loginBody(accessToken string) string {
	return fmt.Sprintf(`{"user_id":"u1","device_id":"d1","access_token":"%s","refresh_token":"r1"}`, accessToken)
}

func refreshBody(accessToken string) string {
	return fmt.Sprintf(`{"access_token":"%s"}`, accessToken)
}

type testFixture struct {
	transport  *transportfake.FakeTransport
	storage    *storage.MemoryStorage
	auth       *auth.Auth
	authEvents atomic.Int32
}

func setupTestFixture(t *testing.T, options ...auth.Option) *testFixture {
	t.Helper()

	f := &testFixture{
		transport: transportfake.NewFakeTransport(),
		storage:   storage.NewMemoryStorage(),
	}
	base := []auth.Option{
		auth.WithoutBackgroundRefresh(),
		auth.WithHooks(auth.Hooks{OnAuthEvent: func() { f.authEvents.Add(1) }}),
	}

	a, err := auth.New(testAppID, f.transport, f.storage, append(base, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	f.auth = a
	return f
}

// login runs a full username/password login against scripted responses.
func (f *testFixture) login(t *testing.T, accessToken string) auth.User {
	t.Helper()

	f.transport.Enqueue(
		transportfake.RespondJSON(http.StatusOK, loginBody(accessToken)),
		transportfake.RespondJSON(http.StatusOK, profileBody),
	)
	user, err := f.auth.LoginWithCredential(context.Background(),
		credentials.NewUserPasswordCredential("alice@example.com", "hunter2"))
	require.NoError(t, err)
	return user
}

func TestLoginWithCredential(t *testing.T) {
	t.Run("empty storage to logged in", func(t *testing.T) {
		f := setupTestFixture(t)
		token := makeJWT(time.Now())

		user := f.login(t, token)

		require.Equal(t, "u1", user.ID())
		require.Equal(t, credentials.ProviderTypeUserPassword, user.LoggedInProviderType())
		require.Equal(t, "Alice", user.Profile().Name())
		require.True(t, f.auth.IsLoggedIn())
		require.Equal(t, int32(1), f.authEvents.Load())

		requests := f.transport.Requests()
		require.Len(t, requests, 2)
		require.Equal(t, loginPath, requests[0].Path)
		require.Empty(t, requests[0].Headers["Authorization"])
		require.Equal(t, profilePath, requests[1].Path)
		require.Equal(t, "Bearer "+token, requests[1].Headers["Authorization"])

		var payload ejson.Document
		require.NoError(t, ejson.Unmarshal(requests[0].Body, &payload))
		require.Equal(t, "alice@example.com", payload["username"])
		options, ok := payload["options"].(ejson.Document)
		require.True(t, ok)
		device, ok := options["device"].(ejson.Document)
		require.True(t, ok)
		require.NotEmpty(t, device["installationId"])

		stored, err := f.storage.Get(authInfoKey)
		require.NoError(t, err)
		require.Contains(t, string(stored), `"user_id":"u1"`)
		require.Contains(t, string(stored), `"access_token":"`+token+`"`)
	})

	t.Run("anonymous login reuses the existing session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusOK, loginBody(makeJWT(time.Now()))),
			transportfake.RespondJSON(http.StatusOK, profileBody),
		)

		first, err := f.auth.LoginWithCredential(context.Background(), credentials.NewAnonymousCredential())
		require.NoError(t, err)

		second, err := f.auth.LoginWithCredential(context.Background(), credentials.NewAnonymousCredential())
		require.NoError(t, err)

		require.Equal(t, first.ID(), second.ID())
		require.Len(t, f.transport.Requests(), 2)
	})

	t.Run("switching identities logs out the current session first", func(t *testing.T) {
		f := setupTestFixture(t)
		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusOK, loginBody(makeJWT(time.Now()))),
			transportfake.RespondJSON(http.StatusOK, profileBody),
		)
		_, err := f.auth.LoginWithCredential(context.Background(), credentials.NewAnonymousCredential())
		require.NoError(t, err)

		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusNoContent, ""),
			transportfake.RespondJSON(http.StatusOK, loginBody(makeJWT(time.Now()))),
			transportfake.RespondJSON(http.StatusOK, profileBody),
		)
		user, err := f.auth.LoginWithCredential(context.Background(),
			credentials.NewUserPasswordCredential("alice@example.com", "hunter2"))
		require.NoError(t, err)
		require.Equal(t, credentials.ProviderTypeUserPassword, user.LoggedInProviderType())

		requests := f.transport.Requests()
		require.Len(t, requests, 5)
		require.Equal(t, http.MethodDelete, requests[2].Method)
		require.Equal(t, sessionPath, requests[2].Path)
		// logout, then the new login
		require.Equal(t, int32(3), f.authEvents.Load())
	})

	t.Run("response credential skips the network login", func(t *testing.T) {
		f := setupTestFixture(t)
		token := makeJWT(time.Now())
		f.transport.Enqueue(transportfake.RespondJSON(http.StatusOK, profileBody))

		user, err := f.auth.LoginWithCredential(context.Background(), credentials.NewResponseCredential(
			credentials.AuthResponse{UserID: "u1", AccessToken: token, RefreshToken: "r1"},
			credentials.ProviderTypeUserPassword, "local-userpass"))
		require.NoError(t, err)
		require.Equal(t, "u1", user.ID())

		requests := f.transport.Requests()
		require.Len(t, requests, 1)
		require.Equal(t, profilePath, requests[0].Path)
		require.Equal(t, "Bearer "+token, requests[0].Headers["Authorization"])
	})

	t.Run("profile failure on a fresh login clears auth", func(t *testing.T) {
		f := setupTestFixture(t)
		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusOK, loginBody(makeJWT(time.Now()))),
			transportfake.RespondJSON(http.StatusInternalServerError, `{"error":"boom","error_code":"InternalServerError"}`),
		)

		_, err := f.auth.LoginWithCredential(context.Background(),
			credentials.NewUserPasswordCredential("alice@example.com", "hunter2"))
		require.Error(t, err)
		require.False(t, f.auth.IsLoggedIn())
		require.Nil(t, f.auth.User())

		stored, err := f.storage.Get(authInfoKey)
		require.NoError(t, err)
		require.NotContains(t, string(stored), "user_id")
	})

	t.Run("login failure leaves state unchanged", func(t *testing.T) {
		f := setupTestFixture(t)
		f.transport.Enqueue(transportfake.RespondJSON(http.StatusUnauthorized,
			`{"error":"invalid password","error_code":"InvalidPassword"}`))

		_, err := f.auth.LoginWithCredential(context.Background(),
			credentials.NewUserPasswordCredential("alice@example.com", "wrong"))

		var serviceErr *auth.ServiceError
		require.ErrorAs(t, err, &serviceErr)
		require.Equal(t, auth.ServiceErrorCode("InvalidPassword"), serviceErr.Code)
		require.False(t, f.auth.IsLoggedIn())
		require.Equal(t, int32(0), f.authEvents.Load())
	})
}

func TestLinkWithCredential(t *testing.T) {
	t.Run("link issues an authenticated request to the link route", func(t *testing.T) {
		f := setupTestFixture(t)
		token := makeJWT(time.Now())
		user := f.login(t, token)

		linkedProfile := `{"type":"normal","data":{"name":"Alice"},"identities":[` +
			`{"id":"i1","provider_type":"local-userpass"},{"id":"i2","provider_type":"api-key"}]}`
		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusOK, loginBody(token)),
			transportfake.RespondJSON(http.StatusOK, linkedProfile),
		)

		linked, err := f.auth.LinkWithCredential(context.Background(), user, credentials.NewAPIKeyCredential("key-1"))
		require.NoError(t, err)
		require.Equal(t, "u1", linked.ID())
		require.Len(t, linked.Profile().Identities, 2)

		requests := f.transport.Requests()
		linkReq := requests[2]
		require.Equal(t, "/api/client/v2.0/app/test-app/auth/providers/api-key/login?link=true", linkReq.Path)
		require.Equal(t, "Bearer "+token, linkReq.Headers["Authorization"])
	})

	t.Run("profile failure on link restores the previous session", func(t *testing.T) {
		f := setupTestFixture(t)
		token := makeJWT(time.Now())
		user := f.login(t, token)
		before := f.auth.AuthInfo()

		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusOK, loginBody(token)),
			transportfake.RespondJSON(http.StatusInternalServerError, `{"error":"boom","error_code":"InternalServerError"}`),
		)

		_, err := f.auth.LinkWithCredential(context.Background(), user, credentials.NewAPIKeyCredential("key-1"))
		require.Error(t, err)

		// still logged in as the previous user with the previous state
		require.True(t, f.auth.IsLoggedIn())
		require.Equal(t, user, f.auth.User())
		require.Equal(t, before, f.auth.AuthInfo())
	})

	t.Run("stale user reference is rejected without a network call", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now()))
		requestsBefore := len(f.transport.Requests())

		_, err := f.auth.LinkWithCredential(context.Background(), nil, credentials.NewAPIKeyCredential("key-1"))
		require.ErrorIs(t, err, auth.UserNoLongerValidErr)
		require.Len(t, f.transport.Requests(), requestsBefore)
	})
}

func TestLogout(t *testing.T) {
	t.Run("clears local state even when the session delete fails", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now()))
		f.transport.Enqueue(transportfake.RespondError(fmt.Errorf("connection refused")))

		require.NoError(t, f.auth.Logout(context.Background()))
		require.False(t, f.auth.IsLoggedIn())
		require.Nil(t, f.auth.User())

		stored, err := f.storage.Get(authInfoKey)
		require.NoError(t, err)
		require.NotContains(t, string(stored), "user_id")
		require.Contains(t, string(stored), `"device_id":"d1"`)
	})

	t.Run("second logout is a no-op", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now()))
		f.transport.Enqueue(transportfake.RespondJSON(http.StatusNoContent, ""))

		require.NoError(t, f.auth.Logout(context.Background()))
		events := f.authEvents.Load()
		requests := len(f.transport.Requests())

		require.NoError(t, f.auth.Logout(context.Background()))
		require.Equal(t, events, f.authEvents.Load())
		require.Len(t, f.transport.Requests(), requests)
	})

	t.Run("logout uses the refresh token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now()))
		f.transport.Enqueue(transportfake.RespondJSON(http.StatusNoContent, ""))

		require.NoError(t, f.auth.Logout(context.Background()))
		deleteReq := f.transport.LastRequest()
		require.Equal(t, http.MethodDelete, deleteReq.Method)
		require.Equal(t, "Bearer r1", deleteReq.Headers["Authorization"])
	})
}

func TestExecuteAuthenticatedRequest(t *testing.T) {
	t.Run("fails immediately when not logged in", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.auth.ExecuteAuthenticatedRequest(context.Background(),
			auth.NewRequest(http.MethodGet, "/api/test", nil))
		require.ErrorIs(t, err, auth.MustAuthenticateErr)
		require.Empty(t, f.transport.Requests())
	})

	t.Run("invalid session triggers one refresh and retry", func(t *testing.T) {
		f := setupTestFixture(t)
		staleToken := makeJWT(time.Now().Add(-time.Hour))
		f.login(t, staleToken)
		requestsBefore := len(f.transport.Requests())

		freshToken := makeJWT(time.Now().Add(time.Hour))
		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusUnauthorized, invalidSessionBody),
			transportfake.RespondJSON(http.StatusOK, refreshBody(freshToken)),
			transportfake.RespondJSON(http.StatusOK, `{"ok":true}`),
		)

		resp, err := f.auth.ExecuteAuthenticatedRequest(context.Background(),
			auth.NewRequest(http.MethodGet, "/api/test", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		requests := f.transport.Requests()
		require.Len(t, requests, requestsBefore+3)
		refreshReq := requests[requestsBefore+1]
		require.Equal(t, sessionPath, refreshReq.Path)
		require.Equal(t, "Bearer r1", refreshReq.Headers["Authorization"])
		retryReq := requests[requestsBefore+2]
		require.Equal(t, "/api/test", retryReq.Path)
		require.Equal(t, "Bearer "+freshToken, retryReq.Headers["Authorization"])

		info := f.auth.AuthInfo()
		require.NotNil(t, info.AccessToken)
		require.Equal(t, freshToken, *info.AccessToken)
	})

	t.Run("a second invalid session clears auth and propagates", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now().Add(-time.Hour)))
		requestsBefore := len(f.transport.Requests())

		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusUnauthorized, invalidSessionBody),
			transportfake.RespondJSON(http.StatusOK, refreshBody(makeJWT(time.Now()))),
			transportfake.RespondJSON(http.StatusUnauthorized, invalidSessionBody),
		)

		_, err := f.auth.ExecuteAuthenticatedRequest(context.Background(),
			auth.NewRequest(http.MethodGet, "/api/test", nil))
		require.True(t, auth.IsInvalidSession(err))
		require.False(t, f.auth.IsLoggedIn())
		// original, refresh, retry: never a fourth call
		require.Len(t, f.transport.Requests(), requestsBefore+3)
	})

	t.Run("invalid session on a refresh-token request clears auth without retry", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now()))
		requestsBefore := len(f.transport.Requests())

		f.transport.Enqueue(transportfake.RespondJSON(http.StatusUnauthorized, invalidSessionBody))

		err := f.auth.RefreshAccessToken(context.Background())
		require.True(t, auth.IsInvalidSession(err))
		require.False(t, f.auth.IsLoggedIn())
		require.Len(t, f.transport.Requests(), requestsBefore+1)
	})

	t.Run("freshness short-circuit skips the redundant refresh", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now()))
		requestsBefore := len(f.transport.Requests())

		// The request began before the current token was issued, so a
		// refresh that satisfied some other request already covers it.
		req := auth.NewRequest(http.MethodGet, "/api/test", nil)
		req.StartedAt = time.Now().Add(-time.Minute)

		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusUnauthorized, invalidSessionBody),
			transportfake.RespondJSON(http.StatusOK, `{"ok":true}`),
		)

		_, err := f.auth.ExecuteAuthenticatedRequest(context.Background(), req)
		require.NoError(t, err)

		requests := f.transport.Requests()
		require.Len(t, requests, requestsBefore+2)
		for _, r := range requests[requestsBefore:] {
			require.NotEqual(t, sessionPath, r.Path)
		}
	})

	t.Run("an undecodable access token still refreshes", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, "not-a-jwt")
		requestsBefore := len(f.transport.Requests())

		req := auth.NewRequest(http.MethodGet, "/api/test", nil)
		req.StartedAt = time.Now().Add(-time.Minute)

		f.transport.Enqueue(
			transportfake.RespondJSON(http.StatusUnauthorized, invalidSessionBody),
			transportfake.RespondJSON(http.StatusOK, refreshBody(makeJWT(time.Now()))),
			transportfake.RespondJSON(http.StatusOK, `{"ok":true}`),
		)

		_, err := f.auth.ExecuteAuthenticatedRequest(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, f.transport.Requests(), requestsBefore+3)
	})

	t.Run("other service errors propagate verbatim", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now()))
		requestsBefore := len(f.transport.Requests())

		f.transport.Enqueue(transportfake.RespondJSON(http.StatusNotFound,
			`{"error":"no such thing","error_code":"ResourceNotFound"}`))

		_, err := f.auth.ExecuteAuthenticatedRequest(context.Background(),
			auth.NewRequest(http.MethodGet, "/api/test", nil))

		var serviceErr *auth.ServiceError
		require.ErrorAs(t, err, &serviceErr)
		require.Equal(t, http.StatusNotFound, serviceErr.StatusCode)
		require.True(t, f.auth.IsLoggedIn())
		require.Len(t, f.transport.Requests(), requestsBefore+1)
	})

	t.Run("decode failures map to a decoding request error", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now()))
		f.transport.Enqueue(transportfake.RespondJSON(http.StatusOK, "<not json>"))

		var out ejson.Document
		err := f.auth.ExecuteAuthenticatedRequestDecode(context.Background(),
			auth.NewRequest(http.MethodGet, "/api/test", nil), &out)

		var requestErr *auth.RequestError
		require.ErrorAs(t, err, &requestErr)
		require.Equal(t, auth.RequestErrorDecoding, requestErr.Kind)
	})
}

func TestOpenAuthenticatedStream(t *testing.T) {
	t.Run("appends the session token as a query parameter", func(t *testing.T) {
		f := setupTestFixture(t)
		token := makeJWT(time.Now())
		f.login(t, token)

		stream, err := f.auth.OpenAuthenticatedStream(context.Background(),
			auth.NewRequest(http.MethodGet, "/api/watch", nil))
		require.NoError(t, err)
		defer stream.Close()

		require.Equal(t, "/api/watch?auth_token="+token, f.transport.LastRequest().Path)
	})

	t.Run("reopen carries the token current at reconnect time", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now().Add(-time.Hour)))

		stream, err := f.auth.OpenAuthenticatedStream(context.Background(),
			auth.NewRequest(http.MethodGet, "/api/watch", nil))
		require.NoError(t, err)
		defer stream.Close()

		freshToken := makeJWT(time.Now())
		f.transport.Enqueue(transportfake.RespondJSON(http.StatusOK, refreshBody(freshToken)))
		require.NoError(t, f.auth.RefreshAccessToken(context.Background()))

		reopened, err := f.transport.Reopen(context.Background())
		require.NoError(t, err)
		require.Equal(t, "/api/watch?auth_token="+freshToken, reopened.Path)
	})

	t.Run("invalid session on open refreshes and retries once", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, makeJWT(time.Now().Add(-time.Hour)))
		requestsBefore := len(f.transport.Requests())

		freshToken := makeJWT(time.Now().Add(time.Hour))
		f.transport.FailNextStreamWith(&transport.StreamOpenError{
			StatusCode: http.StatusUnauthorized,
			Body:       []byte(invalidSessionBody),
		})
		f.transport.Enqueue(transportfake.RespondJSON(http.StatusOK, refreshBody(freshToken)))

		stream, err := f.auth.OpenAuthenticatedStream(context.Background(),
			auth.NewRequest(http.MethodGet, "/api/watch", nil))
		require.NoError(t, err)
		defer stream.Close()

		requests := f.transport.Requests()
		// failed open, refresh, successful open
		require.Len(t, requests, requestsBefore+3)
		require.Equal(t, "/api/watch?auth_token="+freshToken, requests[len(requests)-1].Path)
	})
}

func TestRefreshSingleflight(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, makeJWT(time.Now().Add(-time.Hour)))
	requestsBefore := len(f.transport.Requests())

	freshToken := makeJWT(time.Now())
	f.transport.Enqueue(func(req *transport.Request) (*transport.Response, error) {
		time.Sleep(50 * time.Millisecond)
		return transportfake.RespondJSON(http.StatusOK, refreshBody(freshToken))(req)
	})

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = f.auth.RefreshAccessToken(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	// all four callers shared one in-flight refresh
	require.Len(t, f.transport.Requests(), requestsBefore+1)
}

func TestLoggedInInvariant(t *testing.T) {
	f := setupTestFixture(t)

	check := func(loggedIn bool) {
		t.Helper()
		require.Equal(t, loggedIn, f.auth.IsLoggedIn())
		require.Equal(t, loggedIn, f.auth.AuthInfo().UserID != nil)
		require.Equal(t, loggedIn, f.auth.User() != nil)
		if loggedIn {
			require.NotNil(t, f.auth.AuthInfo().AccessToken)
			require.NotNil(t, f.auth.AuthInfo().RefreshToken)
		}
	}

	check(false)
	f.login(t, makeJWT(time.Now()))
	check(true)

	f.transport.Enqueue(transportfake.RespondJSON(http.StatusNoContent, ""))
	require.NoError(t, f.auth.Logout(context.Background()))
	check(false)
}

func TestPersistedStateRestoredOnConstruction(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, makeJWT(time.Now()))

	restored, err := auth.New(testAppID, f.transport, f.storage, auth.WithoutBackgroundRefresh())
	require.NoError(t, err)
	defer restored.Close()

	require.True(t, restored.IsLoggedIn())
	user := restored.User()
	require.NotNil(t, user)
	require.Equal(t, "u1", user.ID())
	require.Equal(t, "Alice", user.Profile().Name())
}

func TestCustomUserFactory(t *testing.T) {
	type appUser struct {
		auth.User
		greeting string
	}

	f := setupTestFixture(t, auth.WithHooks(auth.Hooks{
		MakeUser: func(id string, providerType credentials.ProviderType, providerName string, profile auth.Profile) auth.User {
			return &appUser{greeting: "hello " + id}
		},
	}))

	user := f.login(t, makeJWT(time.Now()))
	custom, ok := user.(*appUser)
	require.True(t, ok)
	require.Equal(t, "hello u1", custom.greeting)
}

type failingStorage struct {
	inner   storage.Storage
	getErr  error
	setErr  error
	setErrs int
}

func (s *failingStorage) Get(key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.inner.Get(key)
}

func (s *failingStorage) Set(key string, value []byte) error {
	if s.setErr != nil {
		s.setErrs++
		return s.setErr
	}
	return s.inner.Set(key, value)
}

func (s *failingStorage) Remove(key string) error {
	return s.inner.Remove(key)
}

func TestPersistenceFailures(t *testing.T) {
	t.Run("load failure is fatal at construction", func(t *testing.T) {
		st := &failingStorage{inner: storage.NewMemoryStorage(), getErr: fmt.Errorf("disk gone")}
		_, err := auth.New(testAppID, transportfake.NewFakeTransport(), st, auth.WithoutBackgroundRefresh())

		var clientErr *auth.ClientError
		require.ErrorAs(t, err, &clientErr)
		require.Equal(t, auth.ClientErrorCouldNotLoadPersistedAuth, clientErr.Code)
	})

	t.Run("save failure on logout surfaces but still clears memory", func(t *testing.T) {
		st := &failingStorage{inner: storage.NewMemoryStorage()}
		ft := transportfake.NewFakeTransport()
		a, err := auth.New(testAppID, ft, st, auth.WithoutBackgroundRefresh())
		require.NoError(t, err)
		defer a.Close()

		ft.Enqueue(
			transportfake.RespondJSON(http.StatusOK, loginBody(makeJWT(time.Now()))),
			transportfake.RespondJSON(http.StatusOK, profileBody),
		)
		_, err = a.LoginWithCredential(context.Background(),
			credentials.NewUserPasswordCredential("alice@example.com", "hunter2"))
		require.NoError(t, err)

		st.setErr = fmt.Errorf("disk full")
		ft.Enqueue(transportfake.RespondJSON(http.StatusNoContent, ""))

		err = a.Logout(context.Background())
		var clientErr *auth.ClientError
		require.ErrorAs(t, err, &clientErr)
		require.Equal(t, auth.ClientErrorCouldNotPersistAuth, clientErr.Code)
		require.False(t, a.IsLoggedIn())
	})
}

func TestBackgroundRefresher(t *testing.T) {
	f := setupTestFixture(t, auth.WithBackgroundRefreshInterval(20*time.Millisecond))
	f.login(t, makeJWT(time.Now()))
	requestsBefore := len(f.transport.Requests())

	for i := 0; i < 50; i++ {
		f.transport.Enqueue(transportfake.RespondJSON(http.StatusOK, refreshBody(makeJWT(time.Now()))))
	}

	require.Eventually(t, func() bool {
		return len(f.transport.Requests()) >= requestsBefore+2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.auth.Close())
	require.NoError(t, f.auth.Close())

	settled := len(f.transport.Requests())
	time.Sleep(80 * time.Millisecond)
	require.Len(t, f.transport.Requests(), settled)
}
