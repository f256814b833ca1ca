package redis

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/usecase"
)

const (
	emailKeyPrefix   = "directory:email:"
	accountKeyPrefix = "directory:account:"
)

// CachedDirectory caches an AccountDirectory in Redis. Emails never change
// once registered, so entries only expire by TTL. Cache failures fall back
// to the wrapped directory.
type CachedDirectory struct {
	next   usecase.AccountDirectory
	cache  *Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedDirectory creates a new CachedDirectory.
func NewCachedDirectory(next usecase.AccountDirectory, cache *Cache, ttl time.Duration, logger zerolog.Logger) *CachedDirectory {
	return &CachedDirectory{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// ResolveEmail returns the ID registered under email.
func (d *CachedDirectory) ResolveEmail(ctx context.Context, email string) (string, error) {
	id, err := d.cache.Get(ctx, emailKeyPrefix+email)
	if err == nil {
		return id, nil
	}
	if !IsMiss(err) {
		d.logger.Warn().Err(err).Msg("directory cache read failed")
	}

	id, err = d.next.ResolveEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if err := d.cache.SetMany(ctx, map[string]string{
		emailKeyPrefix + email: id,
		accountKeyPrefix + id:  email,
	}, d.ttl); err != nil {
		d.logger.Warn().Err(err).Msg("directory cache write failed")
	}

	return id, nil
}

// EmailsByID returns emails for ids, reading through to the wrapped
// directory for cache misses only.
func (d *CachedDirectory) EmailsByID(ctx context.Context, ids []string) (map[string]string, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = accountKeyPrefix + id
	}

	cached, err := d.cache.GetMany(ctx, keys)
	if err != nil {
		d.logger.Warn().Err(err).Msg("directory cache read failed")
		cached = map[string]string{}
	}

	emails := make(map[string]string, len(ids))
	queued := make(map[string]bool)
	var missing []string
	for _, id := range ids {
		if email, ok := cached[accountKeyPrefix+id]; ok {
			emails[id] = email
			continue
		}
		if !queued[id] {
			queued[id] = true
			missing = append(missing, id)
		}
	}

	if len(missing) == 0 {
		return emails, nil
	}

	fetched, err := d.next.EmailsByID(ctx, missing)
	if err != nil {
		return nil, err
	}

	fill := make(map[string]string, len(fetched))
	for id, email := range fetched {
		emails[id] = email
		fill[accountKeyPrefix+id] = email
	}

	if err := d.cache.SetMany(ctx, fill, d.ttl); err != nil {
		d.logger.Warn().Err(err).Msg("directory cache write failed")
	}

	return emails, nil
}
