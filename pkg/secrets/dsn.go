package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DSNKey is the JSON key inside the secret holding the connection string.
const DSNKey = "database_url"

// DSNResolver resolves a database connection string from a secrets provider,
// caching the result locally to reduce provider calls.
type DSNResolver struct {
	logger   *zap.Logger
	provider Provider
	cache    *Cache[string]
}

// NewDSNResolver constructs a resolver backed by the given provider.
func NewDSNResolver(logger *zap.Logger, provider Provider, cache *Cache[string]) *DSNResolver {
	return &DSNResolver{
		logger:   logger,
		provider: provider,
		cache:    cache,
	}
}

// Resolve fetches the DSN stored under secretID, consulting the cache first.
func (r *DSNResolver) Resolve(ctx context.Context, secretID string) (string, error) {
	if dsn, ok := r.cache.Get(secretID); ok {
		return dsn, nil
	}

	secret, err := r.provider.GetSecret(ctx, secretID)
	if err != nil {
		r.logger.Warn("secrets.fetch_failed",
			zap.String("secret_id", secretID),
			zap.Error(err))
		return "", err
	}

	dsn, ok := secret[DSNKey]
	if !ok || dsn == "" {
		return "", fmt.Errorf("secret [%s] is missing key %q", secretID, DSNKey)
	}

	r.cache.Put(secretID, dsn)
	return dsn, nil
}
