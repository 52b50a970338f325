package auth

import (
	"github.com/gragonvlad/stitch-go-sdk/auth/credentials"
	"github.com/gragonvlad/stitch-go-sdk/internal/utils"
)

// AuthInfo is the record of who is logged in and with what tokens. Instances
// are immutable: every transition produces a new value so concurrent readers
// always observe a complete snapshot.
type AuthInfo struct {
	UserID               *string                   `json:"user_id,omitempty"`
	DeviceID             *string                   `json:"device_id,omitempty"`
	AccessToken          *string                   `json:"access_token,omitempty"`
	RefreshToken         *string                   `json:"refresh_token,omitempty"`
	LoggedInProviderType *credentials.ProviderType `json:"logged_in_provider_type,omitempty"`
	LoggedInProviderName *string                   `json:"logged_in_provider_name,omitempty"`
	UserProfile          *Profile                  `json:"user_profile,omitempty"`
}

// apiAuthInfo is the wire shape of login, link, and refresh responses. Any
// field the backend omits leaves the corresponding AuthInfo field untouched
// on merge.
type apiAuthInfo struct {
	UserID       *string `bson:"user_id"`
	DeviceID     *string `bson:"device_id"`
	AccessToken  *string `bson:"access_token"`
	RefreshToken *string `bson:"refresh_token"`
}

func (ai AuthInfo) loggedIn() bool {
	return ai.UserID != nil
}

// merge produces a new AuthInfo with api's fields layered over ai.
func (ai AuthInfo) merge(api apiAuthInfo) AuthInfo {
	return AuthInfo{
		UserID:               utils.Coalesce(api.UserID, ai.UserID),
		DeviceID:             utils.Coalesce(api.DeviceID, ai.DeviceID),
		AccessToken:          utils.Coalesce(api.AccessToken, ai.AccessToken),
		RefreshToken:         utils.Coalesce(api.RefreshToken, ai.RefreshToken),
		LoggedInProviderType: ai.LoggedInProviderType,
		LoggedInProviderName: ai.LoggedInProviderName,
		UserProfile:          ai.UserProfile,
	}
}

// withProvider records which credential authenticated this session.
func (ai AuthInfo) withProvider(providerType credentials.ProviderType, providerName string) AuthInfo {
	out := ai
	out.LoggedInProviderType = utils.Ptr(providerType)
	out.LoggedInProviderName = utils.Ptr(providerName)
	return out
}

// withProfile attaches a fetched user profile.
func (ai AuthInfo) withProfile(profile Profile) AuthInfo {
	out := ai
	out.UserProfile = &profile
	return out
}

// loggedOut clears identity and tokens but preserves the device id, so the
// backend keeps recognising this installation across sessions.
func (ai AuthInfo) loggedOut() AuthInfo {
	return AuthInfo{DeviceID: ai.DeviceID}
}
