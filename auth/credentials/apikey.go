package credentials

import "github.com/gragonvlad/stitch-go-sdk/ejson"

var _ Credential = (*APIKeyCredential)(nil)

// APIKeyCredential authenticates with a user or server API key.
type APIKeyCredential struct {
	providerName string
	key          string
}

func NewAPIKeyCredential(key string) *APIKeyCredential {
	return &APIKeyCredential{providerName: string(ProviderTypeAPIKey), key: key}
}

func (c *APIKeyCredential) ProviderType() ProviderType {
	return ProviderTypeAPIKey
}

func (c *APIKeyCredential) ProviderName() string {
	return c.providerName
}

func (c *APIKeyCredential) Material() ejson.Document {
	return ejson.Document{"key": c.key}
}

func (c *APIKeyCredential) Capabilities() Capabilities {
	return Capabilities{}
}
