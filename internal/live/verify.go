package live

import (
	"context"
	"time"
)

// Restorer re-resolves an identity from its access token. *auth.Client
// satisfies it.
type Restorer interface {
	Restore(ctx context.Context, token string)
}

// KeepVerified re-checks token every interval until ctx is done, so a
// connection notices when its staff session is revoked or expires.
func KeepVerified(ctx context.Context, r Restorer, token string, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Restore(ctx, token)
		}
	}
}
