package credentials

import "github.com/gragonvlad/stitch-go-sdk/ejson"

var _ Credential = (*CustomTokenCredential)(nil)

// CustomTokenCredential authenticates with a JWT issued by an external
// system the backend has been configured to trust.
type CustomTokenCredential struct {
	providerName string
	token        string
}

func NewCustomTokenCredential(token string) *CustomTokenCredential {
	return &CustomTokenCredential{providerName: string(ProviderTypeCustomToken), token: token}
}

func (c *CustomTokenCredential) ProviderType() ProviderType {
	return ProviderTypeCustomToken
}

func (c *CustomTokenCredential) ProviderName() string {
	return c.providerName
}

func (c *CustomTokenCredential) Material() ejson.Document {
	return ejson.Document{"token": c.token}
}

func (c *CustomTokenCredential) Capabilities() Capabilities {
	return Capabilities{}
}

var _ Credential = (*FunctionCredential)(nil)

// FunctionCredential authenticates through a server-side function that
// receives the payload and decides whether to admit the caller.
type FunctionCredential struct {
	providerName string
	payload      ejson.Document
}

func NewFunctionCredential(payload ejson.Document) *FunctionCredential {
	return &FunctionCredential{providerName: string(ProviderTypeCustomFunction), payload: payload}
}

func (c *FunctionCredential) ProviderType() ProviderType {
	return ProviderTypeCustomFunction
}

func (c *FunctionCredential) ProviderName() string {
	return c.providerName
}

func (c *FunctionCredential) Material() ejson.Document {
	if c.payload == nil {
		return ejson.Document{}
	}
	return c.payload
}

func (c *FunctionCredential) Capabilities() Capabilities {
	return Capabilities{}
}
