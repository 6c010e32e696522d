// Package revocationfeed is a thin HTTP polling client for a
// network-delivered revocation list. It is one of the collaborators
// the core trust model deliberately leaves out of scope: it consumes
// trust.RevocationRecord values and feeds them to a caller-held
// revocation set, but defines none of trust.VerifyGrant's semantics and
// has no retry/backoff/caching policy of its own. Adapted from the
// teacher's mediamtx poller, which had the same "fetch a JSON list over
// HTTP on an interval" shape.
package revocationfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/trust"
)

// Client polls a single URL for the current revocation list.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// NewClient builds a Client against base, the revocation feed endpoint.
func NewClient(base string, log zerolog.Logger) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 5 * time.Second},
		log:  log,
	}
}

// Fetch retrieves the current revocation list as a JSON array of
// trust.RevocationRecord.
func (c *Client) Fetch(ctx context.Context) ([]trust.RevocationRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base, nil)
	if err != nil {
		return nil, fmt.Errorf("revocationfeed: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("revocationfeed: fetch: %w", err)
	}
	defer resp.Body.Close()

	var out []trust.RevocationRecord
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("revocationfeed: decode: %w", err)
	}
	return out, nil
}

// Store is the caller-owned revocation set a Watch loop feeds. Swap is
// expected to replace the set in one atomic step (e.g. behind a mutex or
// an atomic.Pointer) so readers never see a half-updated list.
type Store interface {
	Swap([]trust.RevocationRecord)
}

// Watch polls Fetch on interval until ctx is cancelled, pushing each
// successful fetch into store. Fetch errors are logged and skipped; the
// previous revocation set is left in place rather than cleared, since an
// empty set would silently un-revoke everything.
func Watch(ctx context.Context, c *Client, store Store, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			revocations, err := c.Fetch(ctx)
			if err != nil {
				c.log.Warn().Err(err).Msg("revocationfeed: fetch failed, keeping previous set")
				continue
			}
			store.Swap(revocations)
		}
	}
}
