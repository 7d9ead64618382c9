// Package jwks holds the identity provider's signing keys, fetched lazily by key id and
// bounded by entry count and age.
package jwks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-jose/go-jose/v4"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"golang.org/x/sync/singleflight"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/metrics"
)

const (
	DefaultMaxEntries = 5
	DefaultMaxAge     = 10 * time.Minute

	fetchTimeout = 10 * time.Second
)

// SupportedAlgorithms are the signature algorithms accepted on identity tokens.
var SupportedAlgorithms = []jose.SignatureAlgorithm{jose.RS256, jose.RS384, jose.RS512, jose.PS256, jose.PS512}

var ErrKeyNotFound = fmt.Errorf("signing key not found in JWKS")

type entry struct {
	key       any
	fetchedAt time.Time
}

type Option func(c *Cache)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Cache) {
		c.httpClient = httpClient
	}
}

// WithBounds sets the maximum number of cached keys and how long each stays fresh.
func WithBounds(maxEntries int, maxAge time.Duration) Option {
	return func(c *Cache) {
		if maxEntries > 0 {
			c.maxEntries = maxEntries
		}
		if maxAge > 0 {
			c.maxAge = maxAge
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache is safe for concurrent use. Concurrent misses for the same key id share one fetch.
type Cache struct {
	endpoint   string
	httpClient *http.Client
	maxEntries int
	maxAge     time.Duration
	metrics    *metrics.Metrics
	now        func() time.Time

	group   singleflight.Group
	entries *ristretto.Cache[string, entry]
}

func New(endpoint string, opts ...Option) (*Cache, error) {
	c := &Cache{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		maxEntries: DefaultMaxEntries,
		maxAge:     DefaultMaxAge,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Every key costs 1, so MaxCost is the entry bound
	entries, err := ristretto.NewCache(&ristretto.Config[string, entry]{
		NumCounters:        int64(max(100, 10*c.maxEntries)),
		MaxCost:            int64(c.maxEntries),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create key cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

func (c *Cache) Endpoint() string {
	return c.endpoint
}

// VerifySignature satisfies oidc.KeySet: it resolves the token's key id and returns the
// verified payload.
func (c *Cache) VerifySignature(ctx context.Context, raw string) ([]byte, error) {
	sig, err := jose.ParseSigned(raw, SupportedAlgorithms)
	if err != nil {
		return nil, fmt.Errorf("malformed jws: %w", err)
	}
	if len(sig.Signatures) != 1 {
		return nil, fmt.Errorf("expected one signature, got %d", len(sig.Signatures))
	}

	key, err := c.Key(ctx, sig.Signatures[0].Header.KeyID)
	if err != nil {
		return nil, err
	}

	payload, err := sig.Verify(key)
	if err != nil {
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}
	return payload, nil
}

// Key returns the public key for kid, fetching the key set when it is not cached or
// the cached copy is older than the configured age. A caller whose context ends stops
// waiting without failing other callers sharing the same fetch.
func (c *Cache) Key(ctx context.Context, kid string) (any, error) {
	if kid == "" {
		return nil, fmt.Errorf("token header missing kid")
	}

	if e, ok := c.entries.Get(kid); ok && c.now().Sub(e.fetchedAt) <= c.maxAge {
		return e.key, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(kid, func() (any, error) {
		key, err := c.fetch(fetchCtx, kid)
		c.metrics.JWKSFetch(err)
		if err != nil {
			return nil, err
		}
		c.entries.SetWithTTL(kid, entry{key: key, fetchedAt: c.now()}, 1, c.maxAge)
		c.entries.Wait()
		return key, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	}
}

// Reset drops every cached key.
func (c *Cache) Reset() {
	c.entries.Clear()
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() {
	c.entries.Close()
}

func (c *Cache) fetch(ctx context.Context, kid string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	set, err := jwk.Fetch(ctx, c.endpoint, jwk.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}

	key, found := set.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("%w: kid %s", ErrKeyNotFound, kid)
	}

	var rawKey any
	if err := jwk.Export(key, &rawKey); err != nil {
		return nil, fmt.Errorf("export key %s: %w", kid, err)
	}
	return rawKey, nil
}
