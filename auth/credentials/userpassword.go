package credentials

import "github.com/gragonvlad/stitch-go-sdk/ejson"

var _ Credential = (*UserPasswordCredential)(nil)

// UserPasswordCredential authenticates with an email/username and password.
type UserPasswordCredential struct {
	providerName string
	username     string
	password     string
}

func NewUserPasswordCredential(username, password string) *UserPasswordCredential {
	return &UserPasswordCredential{
		providerName: string(ProviderTypeUserPassword),
		username:     username,
		password:     password,
	}
}

func (c *UserPasswordCredential) ProviderType() ProviderType {
	return ProviderTypeUserPassword
}

func (c *UserPasswordCredential) ProviderName() string {
	return c.providerName
}

func (c *UserPasswordCredential) Material() ejson.Document {
	return ejson.Document{
		"username": c.username,
		"password": c.password,
	}
}

func (c *UserPasswordCredential) Capabilities() Capabilities {
	return Capabilities{}
}
