package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// RedisCredentialsStore implements CredentialsStore on Redis for deployments
// where several instances share one merchant's token. Entries are stored as
// JSON under a prefixed key with a TTL derived from the token expiry, so
// stale credentials age out of Redis on their own.
type RedisCredentialsStore struct {
	client *goredis.Client
	prefix string
	// maxTTL caps the per-entry TTL (30 days by default).
	maxTTL time.Duration
}

// NewRedisCredentialsStore wraps an existing go-redis client. The caller owns
// the client's lifecycle; this store never closes it.
func NewRedisCredentialsStore(client *goredis.Client) *RedisCredentialsStore {
	return &RedisCredentialsStore{
		client: client,
		prefix: "paygate:credentials:",
		maxTTL: 30 * 24 * time.Hour,
	}
}

// Save serializes the credentials and writes them with a TTL of the token
// lifetime plus a 24-hour grace window, capped at maxTTL. The grace window
// keeps the refresh token retrievable after the access token itself expires.
func (s *RedisCredentialsStore) Save(ctx context.Context, key string, creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	ttl := s.maxTTL
	if !creds.ExpiresAt.IsZero() {
		entryTTL := time.Until(creds.ExpiresAt) + 24*time.Hour
		if entryTTL > 0 && entryTTL < ttl {
			ttl = entryTTL
		}
	}

	return s.client.Set(ctx, s.prefix+key, string(data), ttl).Err()
}

// Load retrieves credentials by key. A missing or TTL-expired entry returns
// (nil, nil) rather than an error.
func (s *RedisCredentialsStore) Load(ctx context.Context, key string) (*Credentials, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to deserialize credentials: %w", err)
	}
	return &creds, nil
}

// Delete removes the entry. Deleting a missing key is not an error.
func (s *RedisCredentialsStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
