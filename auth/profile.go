package auth

// Identity is one provider-issued identity attached to a user. A user gains
// an identity per linked credential.
type Identity struct {
	ID           string `bson:"id" json:"id"`
	ProviderType string `bson:"provider_type" json:"provider_type"`
}

// Profile is the provider-agnostic view of a user the backend exposes on its
// profile endpoint.
type Profile struct {
	UserType   string         `bson:"type" json:"type"`
	Data       map[string]any `bson:"data" json:"data"`
	Identities []Identity     `bson:"identities" json:"identities"`
}

func (p Profile) dataString(key string) string {
	value, _ := p.Data[key].(string)
	return value
}

// Name returns the profile's display name, when the provider supplied one.
func (p Profile) Name() string {
	return p.dataString("name")
}

// Email returns the profile's email address, when the provider supplied one.
func (p Profile) Email() string {
	return p.dataString("email")
}

// PictureURL returns the profile's avatar URL, when the provider supplied
// one.
func (p Profile) PictureURL() string {
	return p.dataString("picture")
}
