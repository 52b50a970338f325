package auth

import "fmt"

// Routes supplies the fixed paths of the auth endpoints. The default
// implementation targets the standard client API; tests and self-hosted
// deployments can substitute their own.
type Routes interface {
	// SessionRoute is POSTed with the refresh token to mint a new access
	// token and DELETEd to end the session.
	SessionRoute() string
	// ProfileRoute serves the logged-in user's profile.
	ProfileRoute() string
	// ProviderLoginRoute is the login endpoint for a named provider.
	ProviderLoginRoute(providerName string) string
	// ProviderLinkRoute is the identity-link endpoint for a named provider,
	// issued as an authenticated request against the current session.
	ProviderLinkRoute(providerName string) string
}

const clientAPIBase = "/api/client/v2.0"

var _ Routes = (*apiRoutes)(nil)

type apiRoutes struct {
	clientAppID string
}

// NewAPIRoutes returns the standard client API routes for an app.
func NewAPIRoutes(clientAppID string) Routes {
	return &apiRoutes{clientAppID: clientAppID}
}

func (r *apiRoutes) SessionRoute() string {
	return clientAPIBase + "/auth/session"
}

func (r *apiRoutes) ProfileRoute() string {
	return clientAPIBase + "/auth/profile"
}

func (r *apiRoutes) ProviderLoginRoute(providerName string) string {
	return fmt.Sprintf("%s/app/%s/auth/providers/%s/login", clientAPIBase, r.clientAppID, providerName)
}

func (r *apiRoutes) ProviderLinkRoute(providerName string) string {
	return r.ProviderLoginRoute(providerName) + "?link=true"
}
