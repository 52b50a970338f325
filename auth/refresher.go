package auth

import (
	"context"
	"time"
)

// backgroundRefresh proactively refreshes the access token on a timer,
// independent of request traffic. A failed tick leaves state untouched; the
// next tick retries. The loop exits permanently once Close is called.
func (a *Auth) backgroundRefresh() {
	ticker := time.NewTicker(a.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			if !a.IsLoggedIn() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
			if err := a.RefreshAccessToken(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("background token refresh failed")
			}
			cancel()
		}
	}
}
