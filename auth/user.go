package auth

import "github.com/gragonvlad/stitch-go-sdk/auth/credentials"

// User is the externally visible projection of the logged-in identity. The
// session manager owns the current User exclusively and replaces it wholesale
// on every state change; it is nil while logged out.
type User interface {
	ID() string
	LoggedInProviderType() credentials.ProviderType
	LoggedInProviderName() string
	Profile() Profile
}

// UserFactory materializes the embedding application's user type from auth
// state. The default factory returns *AuthenticatedUser.
type UserFactory func(id string, providerType credentials.ProviderType, providerName string, profile Profile) User

var _ User = (*AuthenticatedUser)(nil)

// AuthenticatedUser is the SDK's default User implementation.
type AuthenticatedUser struct {
	id           string
	providerType credentials.ProviderType
	providerName string
	profile      Profile
}

func (u *AuthenticatedUser) ID() string {
	return u.id
}

func (u *AuthenticatedUser) LoggedInProviderType() credentials.ProviderType {
	return u.providerType
}

func (u *AuthenticatedUser) LoggedInProviderName() string {
	return u.providerName
}

func (u *AuthenticatedUser) Profile() Profile {
	return u.profile
}

func defaultUserFactory(id string, providerType credentials.ProviderType, providerName string, profile Profile) User {
	return &AuthenticatedUser{
		id:           id,
		providerType: providerType,
		providerName: providerName,
		profile:      profile,
	}
}
