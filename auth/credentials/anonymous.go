package credentials

import "github.com/gragonvlad/stitch-go-sdk/ejson"

var _ Credential = (*AnonymousCredential)(nil)

// AnonymousCredential logs in without any identifying material. Repeated
// anonymous logins reuse the existing anonymous session rather than minting
// a new identity each time.
type AnonymousCredential struct {
	providerName string
}

func NewAnonymousCredential() *AnonymousCredential {
	return &AnonymousCredential{providerName: string(ProviderTypeAnonymous)}
}

func (c *AnonymousCredential) ProviderType() ProviderType {
	return ProviderTypeAnonymous
}

func (c *AnonymousCredential) ProviderName() string {
	return c.providerName
}

func (c *AnonymousCredential) Material() ejson.Document {
	return ejson.Document{}
}

func (c *AnonymousCredential) Capabilities() Capabilities {
	return Capabilities{ReusesExistingSession: true}
}
