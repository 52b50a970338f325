package auth

import (
	"time"

	"github.com/gragonvlad/stitch-go-sdk/ejson"
)

// Request describes one call made on behalf of the logged-in user.
type Request struct {
	Method string
	Path   string
	Body   ejson.Document

	// UseRefreshToken sends the refresh token instead of the access token;
	// set for session refresh and logout.
	UseRefreshToken bool
	// ShouldRefreshOnFailure permits an invalid-session response to trigger
	// one refresh-and-retry cycle. The retried request always carries false,
	// bounding every call to a single retry.
	ShouldRefreshOnFailure bool
	// StartedAt is when this request was created; the freshness check
	// compares it against the access token's issuance time.
	StartedAt time.Time
}

// NewRequest builds a request descriptor with retry-on-invalid-session
// enabled.
func NewRequest(method, path string, body ejson.Document) *Request {
	return &Request{
		Method:                 method,
		Path:                   path,
		Body:                   body,
		ShouldRefreshOnFailure: true,
		StartedAt:              time.Now(),
	}
}

func (a *Auth) newRequest(method, path string) *Request {
	return &Request{
		Method:                 method,
		Path:                   path,
		ShouldRefreshOnFailure: true,
		StartedAt:              a.now(),
	}
}
