package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long a key stays held if its holder dies without
// releasing it.
const DefaultTTL = 10 * time.Minute

// releaseScript deletes the key only if it still carries our token, so a
// holder whose claim expired cannot free somebody else's.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard is a Guard shared by every process using the same Redis.
//
// Every key is also claimed on an in-process MemoryGuard, so if Redis
// cannot be reached the guard still holds within this process and logs a
// warning.
type RedisGuard struct {
	client redis.UniversalClient
	local  *MemoryGuard
	prefix string
	ttl    time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	tokens map[string]string
}

// RedisOptions configures a RedisGuard.
type RedisOptions struct {
	Prefix string
	TTL    time.Duration
	Logger *zap.Logger
}

// NewRedisGuard returns a guard backed by client.
func NewRedisGuard(client redis.UniversalClient, opts RedisOptions) *RedisGuard {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &RedisGuard{
		client: client,
		local:  NewMemoryGuard(),
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		logger: opts.Logger,
		tokens: make(map[string]string),
	}
}

func (g *RedisGuard) Admit(ctx context.Context, key string) bool {
	if !g.local.Admit(ctx, key) {
		return false
	}

	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.prefix+key, token, g.ttl).Result()
	if err != nil {
		g.logger.Warn("dedup guard unavailable, holding key in process only",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}
	if !ok {
		g.local.Release(ctx, key)
		return false
	}

	g.mu.Lock()
	g.tokens[key] = token
	g.mu.Unlock()
	return true
}

func (g *RedisGuard) Release(ctx context.Context, key string) {
	defer g.local.Release(ctx, key)

	g.mu.Lock()
	token, ok := g.tokens[key]
	delete(g.tokens, key)
	g.mu.Unlock()
	if !ok {
		return
	}

	if err := releaseScript.Run(ctx, g.client, []string{g.prefix + key}, token).Err(); err != nil {
		g.logger.Warn("dedup guard release failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
