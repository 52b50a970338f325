// Package auth implements the client-side authentication session manager:
// it owns the lifecycle of a user's auth state, persists it, transparently
// refreshes expired tokens, and retries requests exactly once when the
// backend reports the session as invalid.
package auth

import (
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gragonvlad/stitch-go-sdk/ejson"
	"github.com/gragonvlad/stitch-go-sdk/internal/utils"
	"github.com/gragonvlad/stitch-go-sdk/storage"
	"github.com/gragonvlad/stitch-go-sdk/transport"
)

const (
	sdkVersion               = "1.0.0"
	defaultRefreshInterval   = 5 * time.Minute
	backgroundRefreshTimeout = 30 * time.Second
	streamSessionTokenParam  = "auth_token"
	refreshSingleflightKey   = "session-refresh"
)

// Hooks are the operations the embedding application supplies. Every field
// is optional; nil fields fall back to SDK defaults.
type Hooks struct {
	// MakeUser materializes the application's user type after every
	// committed state change.
	MakeUser UserFactory
	// DeviceInfo supplies the device document sent with login payloads.
	DeviceInfo func() ejson.Document
	// OnAuthEvent is invoked after every committed auth state change
	// (login, link, logout).
	OnAuthEvent func()
}

// Auth is the session manager. All exported methods are safe for concurrent
// use; auth state is replaced wholesale, never mutated in place.
type Auth struct {
	transport transport.Transport
	store     authStore
	routes    Routes
	hooks     Hooks
	logger    zerolog.Logger
	nowFunc   func() time.Time

	refreshGroup    singleflight.Group
	refreshInterval time.Duration
	stopOnce        sync.Once
	done            chan struct{}

	installationID string

	lock        sync.RWMutex
	authInfo    AuthInfo
	currentUser User
}

// Option modifies an Auth instance during construction.
type Option func(*Auth)

// WithRoutes replaces the default client API routes.
func WithRoutes(routes Routes) Option {
	return func(a *Auth) {
		a.routes = routes
	}
}

// WithHooks installs the embedding application's hooks.
func WithHooks(hooks Hooks) Option {
	return func(a *Auth) {
		a.hooks = hooks
	}
}

// WithLogger sets the logger used for background and retry diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Auth) {
		a.logger = logger
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(a *Auth) {
		a.nowFunc = nowFunc
	}
}

// WithBackgroundRefreshInterval changes how often the proactive token
// refresh runs.
func WithBackgroundRefreshInterval(interval time.Duration) Option {
	return func(a *Auth) {
		a.refreshInterval = interval
	}
}

// WithoutBackgroundRefresh disables the proactive token refresh entirely;
// tokens are then refreshed only when a request forces it.
func WithoutBackgroundRefresh() Option {
	return func(a *Auth) {
		a.refreshInterval = 0
	}
}

// New constructs a session manager for the given app, loading any persisted
// auth state. A storage read failure is fatal; absent stored state is not.
// The background refresher starts immediately unless disabled; the caller
// owns stopping it via Close.
func New(clientAppID string, tr transport.Transport, st storage.Storage, options ...Option) (*Auth, error) {
	if tr == nil {
		return nil, errors.New("[auth.New] transport is required")
	}
	if st == nil {
		return nil, errors.New("[auth.New] storage is required")
	}

	a := &Auth{
		transport:       tr,
		store:           authStore{storage: st},
		routes:          NewAPIRoutes(clientAppID),
		logger:          zerolog.Nop(),
		nowFunc:         time.Now,
		refreshInterval: defaultRefreshInterval,
		done:            make(chan struct{}),
	}
	for _, option := range options {
		option(a)
	}
	if a.hooks.MakeUser == nil {
		a.hooks.MakeUser = defaultUserFactory
	}

	info, err := a.store.load()
	if err != nil {
		return nil, couldNotLoadPersistedAuthErr(err)
	}
	a.authInfo = info
	if info.loggedIn() {
		a.currentUser = a.hooks.MakeUser(
			utils.Value(info.UserID),
			utils.Value(info.LoggedInProviderType),
			utils.Value(info.LoggedInProviderName),
			utils.Value(info.UserProfile),
		)
	}

	a.installationID, err = a.store.loadOrCreateInstallationID()
	if err != nil {
		return nil, couldNotLoadPersistedAuthErr(err)
	}

	if a.refreshInterval > 0 {
		go a.backgroundRefresh()
	}
	return a, nil
}

// Close stops the background refresher. It is idempotent and terminal: once
// closed, no further refresh ticks run.
func (a *Auth) Close() error {
	a.stopOnce.Do(func() { close(a.done) })
	return nil
}

// IsLoggedIn reports whether a session is active.
func (a *Auth) IsLoggedIn() bool {
	return a.snapshot().loggedIn()
}

// User returns the current user, or nil while logged out.
func (a *Auth) User() User {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.currentUser
}

// AuthInfo returns a snapshot of the current auth state.
func (a *Auth) AuthInfo() AuthInfo {
	return a.snapshot()
}

func (a *Auth) snapshot() AuthInfo {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.authInfo
}

func (a *Auth) now() time.Time {
	return a.nowFunc()
}

func (a *Auth) notifyAuthEvent() {
	if a.hooks.OnAuthEvent != nil {
		a.hooks.OnAuthEvent()
	}
}

// deviceInfo builds the device document for login payloads: the embedder's
// fields, the stable installation id, and the server-issued device id once
// one exists.
func (a *Auth) deviceInfo() ejson.Document {
	doc := ejson.Document{
		"installationId":  a.installationID,
		"platform":        runtime.GOOS,
		"platformVersion": runtime.Version(),
		"sdkVersion":      sdkVersion,
	}
	if a.hooks.DeviceInfo != nil {
		for key, value := range a.hooks.DeviceInfo() {
			doc[key] = value
		}
	}
	if deviceID := a.snapshot().DeviceID; deviceID != nil {
		doc["deviceId"] = *deviceID
	}
	return doc
}
