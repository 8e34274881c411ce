package claims

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	jwksMaxEntries      = 5
	jwksRefreshInterval = 10 * time.Minute
)

// jwksRegistry keeps at most jwksMaxEntries background-refreshing JWKS
// clients, evicting the least recently used endpoint beyond that.
type jwksRegistry struct {
	mutex   sync.Mutex
	client  *http.Client
	entries map[string]*jwksEntry
}

type jwksEntry struct {
	jwks     *keyfunc.JWKS
	lastUsed time.Time
}

func newJWKSRegistry() *jwksRegistry {
	return &jwksRegistry{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		entries: make(map[string]*jwksEntry),
	}
}

func (r *jwksRegistry) keyfunc(ctx context.Context, url string) (jwt.Keyfunc, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if entry, ok := r.entries[url]; ok {
		entry.lastUsed = time.Now()
		return entry.jwks.Keyfunc, nil
	}

	jwks, err := keyfunc.Get(url, keyfunc.Options{
		Client:            r.client,
		Ctx:               context.Background(),
		RefreshInterval:   jwksRefreshInterval,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.Error("jwks refresh failed",
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
		},
	})
	if err != nil {
		return nil, err
	}

	if len(r.entries) >= jwksMaxEntries {
		r.evictOldest()
	}
	r.entries[url] = &jwksEntry{
		jwks:     jwks,
		lastUsed: time.Now(),
	}

	return jwks.Keyfunc, nil
}

func (r *jwksRegistry) evictOldest() {
	var oldestURL string
	var oldest time.Time
	for url, entry := range r.entries {
		if oldestURL == "" || entry.lastUsed.Before(oldest) {
			oldestURL = url
			oldest = entry.lastUsed
		}
	}
	if oldestURL != "" {
		r.entries[oldestURL].jwks.EndBackground()
		delete(r.entries, oldestURL)
	}
}

func (r *jwksRegistry) close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, entry := range r.entries {
		entry.jwks.EndBackground()
	}
	r.entries = make(map[string]*jwksEntry)
}
