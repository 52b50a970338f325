package credentials

import (
	"golang.org/x/oauth2"

	"github.com/gragonvlad/stitch-go-sdk/ejson"
)

var _ Credential = (*OAuth2Credential)(nil)

// OAuth2Credential authenticates with a token obtained from an OAuth2
// provider the caller has already completed a flow against.
type OAuth2Credential struct {
	providerType ProviderType
	providerName string
	token        *oauth2.Token
}

// NewGoogleCredential builds a credential from a completed Google OAuth2
// exchange.
func NewGoogleCredential(token *oauth2.Token) *OAuth2Credential {
	return &OAuth2Credential{
		providerType: ProviderTypeGoogle,
		providerName: string(ProviderTypeGoogle),
		token:        token,
	}
}

// NewFacebookCredential builds a credential from a completed Facebook OAuth2
// exchange.
func NewFacebookCredential(token *oauth2.Token) *OAuth2Credential {
	return &OAuth2Credential{
		providerType: ProviderTypeFacebook,
		providerName: string(ProviderTypeFacebook),
		token:        token,
	}
}

func (c *OAuth2Credential) ProviderType() ProviderType {
	return c.providerType
}

func (c *OAuth2Credential) ProviderName() string {
	return c.providerName
}

func (c *OAuth2Credential) Material() ejson.Document {
	return ejson.Document{"accessToken": c.token.AccessToken}
}

func (c *OAuth2Credential) Capabilities() Capabilities {
	return Capabilities{}
}
