// Package credentials defines the proofs of identity a caller can log in
// with, one type per authentication provider.
package credentials

import "github.com/gragonvlad/stitch-go-sdk/ejson"

// ProviderType identifies an authentication provider family.
type ProviderType string

const (
	ProviderTypeAnonymous      ProviderType = "anon-user"
	ProviderTypeUserPassword   ProviderType = "local-userpass"
	ProviderTypeAPIKey         ProviderType = "api-key"
	ProviderTypeCustomToken    ProviderType = "custom-token"
	ProviderTypeCustomFunction ProviderType = "custom-function"
	ProviderTypeGoogle         ProviderType = "oauth2-google"
	ProviderTypeFacebook       ProviderType = "oauth2-facebook"
	ProviderTypeOIDC           ProviderType = "oidc-id-token"
)

// Capabilities describes how the session manager may treat a credential.
type Capabilities struct {
	// ReusesExistingSession permits login to return the current user
	// without a network call when a session for the same provider type is
	// already active.
	ReusesExistingSession bool
}

// Credential is caller-supplied proof of identity. Material is the payload
// sent to the provider's login endpoint.
type Credential interface {
	ProviderType() ProviderType
	ProviderName() string
	Material() ejson.Document
	Capabilities() Capabilities
}
