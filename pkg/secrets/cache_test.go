package secrets

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCache_PutGet(t *testing.T) {
	c := NewCache[string](time.Minute)

	c.Put("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache[string](10 * time.Millisecond)

	c.Put("k", "v")
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok, "expired entry must miss")
}

func TestCache_Bust(t *testing.T) {
	c := NewCache[int](time.Minute)

	c.Put("k", 42)
	c.Bust("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

// --- DSN resolver ---

type fakeProvider struct {
	calls  int
	secret map[string]string
	err    error
}

func (f *fakeProvider) GetSecret(ctx context.Context, key string) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.secret, nil
}

func TestDSNResolver_ResolveAndCache(t *testing.T) {
	prov := &fakeProvider{secret: map[string]string{DSNKey: "postgres://u:p@localhost/db"}}
	r := NewDSNResolver(zap.NewNop(), prov, NewCache[string](time.Minute))

	dsn, err := r.Resolve(context.Background(), "prod/market-etl/db")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/db", dsn)

	// Second resolve must hit the cache, not the provider.
	_, err = r.Resolve(context.Background(), "prod/market-etl/db")
	require.NoError(t, err)
	assert.Equal(t, 1, prov.calls)
}

func TestDSNResolver_MissingKey(t *testing.T) {
	prov := &fakeProvider{secret: map[string]string{"other": "x"}}
	r := NewDSNResolver(zap.NewNop(), prov, NewCache[string](time.Minute))

	_, err := r.Resolve(context.Background(), "prod/market-etl/db")
	require.Error(t, err)
}

func TestDSNResolver_ProviderError(t *testing.T) {
	prov := &fakeProvider{err: fmt.Errorf("access denied")}
	r := NewDSNResolver(zap.NewNop(), prov, NewCache[string](time.Minute))

	_, err := r.Resolve(context.Background(), "prod/market-etl/db")
	require.Error(t, err)
}
