package credentials

import "github.com/gragonvlad/stitch-go-sdk/ejson"

// AuthResponse is server-issued authentication material obtained outside the
// normal login flow, for example from a deep link or a host application that
// performed the handshake itself.
type AuthResponse struct {
	UserID       string
	DeviceID     string
	AccessToken  string
	RefreshToken string
}

// ResponseCarrier is implemented by credentials that already carry
// server-issued auth material, letting the session manager skip the network
// login entirely.
type ResponseCarrier interface {
	AuthResponse() AuthResponse
}

var (
	_ Credential      = (*ResponseCredential)(nil)
	_ ResponseCarrier = (*ResponseCredential)(nil)
)

// ResponseCredential wraps an out-of-band AuthResponse as a credential.
type ResponseCredential struct {
	providerType ProviderType
	providerName string
	response     AuthResponse
}

func NewResponseCredential(response AuthResponse, providerType ProviderType, providerName string) *ResponseCredential {
	return &ResponseCredential{
		providerType: providerType,
		providerName: providerName,
		response:     response,
	}
}

func (c *ResponseCredential) AuthResponse() AuthResponse {
	return c.response
}

func (c *ResponseCredential) ProviderType() ProviderType {
	return c.providerType
}

func (c *ResponseCredential) ProviderName() string {
	return c.providerName
}

func (c *ResponseCredential) Material() ejson.Document {
	return ejson.Document{}
}

func (c *ResponseCredential) Capabilities() Capabilities {
	return Capabilities{}
}
