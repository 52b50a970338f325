package credentials

import (
	"context"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"

	"github.com/gragonvlad/stitch-go-sdk/ejson"
)

var _ Credential = (*OIDCCredential)(nil)

// OIDCCredential authenticates with an OpenID Connect ID token. The token's
// signature is verified by the backend; locally it is only parsed so an
// expired or malformed token is rejected before a round trip is wasted on it.
type OIDCCredential struct {
	providerName string
	rawIDToken   string
	subject      string
	expiry       time.Time
}

func NewOIDCCredential(ctx context.Context, rawIDToken string) (*OIDCCredential, error) {
	verifier := oidc.NewVerifier("", nil, &oidc.Config{
		SkipClientIDCheck:          true,
		SkipIssuerCheck:            true,
		InsecureSkipSignatureCheck: true,
	})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[NewOIDCCredential] parsing ID token")
	}
	return &OIDCCredential{
		providerName: string(ProviderTypeOIDC),
		rawIDToken:   rawIDToken,
		subject:      idToken.Subject,
		expiry:       idToken.Expiry,
	}, nil
}

// Subject returns the token's subject claim.
func (c *OIDCCredential) Subject() string {
	return c.subject
}

// Expiry returns the token's expiry claim.
func (c *OIDCCredential) Expiry() time.Time {
	return c.expiry
}

func (c *OIDCCredential) ProviderType() ProviderType {
	return ProviderTypeOIDC
}

func (c *OIDCCredential) ProviderName() string {
	return c.providerName
}

func (c *OIDCCredential) Material() ejson.Document {
	return ejson.Document{"id_token": c.rawIDToken}
}

func (c *OIDCCredential) Capabilities() Capabilities {
	return Capabilities{}
}
