package advice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/trogers1052/portfolio-advisor/internal/analysis"
	"github.com/trogers1052/portfolio-advisor/internal/models"
)

// Cache stores rendered text by key
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache is a Cache backed by redis
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a redis-backed cache; keys are namespaced with prefix
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache: %w", err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// memo serves text from a Cache and fills it on a miss. Cache errors are logged and never fail the call.
type memo struct {
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func newMemo(cache Cache, ttl time.Duration, log zerolog.Logger) memo {
	return memo{
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "advice_cache").Logger(),
	}
}

func (m memo) do(ctx context.Context, key string, fn func() (string, error)) (string, error) {
	if text, ok, err := m.cache.Get(ctx, key); err != nil {
		m.log.Warn().Err(err).Msg("Narration cache read failed")
	} else if ok {
		return text, nil
	}

	text, err := fn()
	if err != nil {
		return "", err
	}

	if err := m.cache.Set(ctx, key, text, m.ttl); err != nil {
		m.log.Warn().Err(err).Msg("Narration cache write failed")
	}
	return text, nil
}

// CachedRenderer memoizes another Renderer
type CachedRenderer struct {
	next Renderer
	memo memo
}

// NewCachedRenderer wraps next with cache
func NewCachedRenderer(next Renderer, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedRenderer {
	return &CachedRenderer{next: next, memo: newMemo(cache, ttl, log)}
}

func (c *CachedRenderer) RenderExplanation(ctx context.Context, score int, symbols []string) (string, error) {
	key := hashKey("explain", fmt.Sprintf("%d", score), strings.Join(symbols, ","))
	return c.memo.do(ctx, key, func() (string, error) {
		return c.next.RenderExplanation(ctx, score, symbols)
	})
}

func (c *CachedRenderer) RenderRiskNarrative(ctx context.Context, report *analysis.RiskReport) (string, error) {
	if report == nil {
		return c.next.RenderRiskNarrative(ctx, report)
	}
	// the timestamp changes every call and must not affect the key
	stable := *report
	stable.GeneratedAt = time.Time{}
	payload, err := json.Marshal(stable)
	if err != nil {
		return "", fmt.Errorf("failed to encode risk report: %w", err)
	}
	key := hashKey("risk", string(payload))
	return c.memo.do(ctx, key, func() (string, error) {
		return c.next.RenderRiskNarrative(ctx, report)
	})
}

// CachedAssistant memoizes market summaries per UTC day and answers per question.
// Wallet suggestions depend on private ledger data and are never cached.
type CachedAssistant struct {
	next Assistant
	memo memo
	now  func() time.Time
}

// NewCachedAssistant wraps next with cache
func NewCachedAssistant(next Assistant, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedAssistant {
	return &CachedAssistant{next: next, memo: newMemo(cache, ttl, log), now: time.Now}
}

func (c *CachedAssistant) MarketSummary(ctx context.Context, market string) (string, error) {
	key := hashKey("market", market, c.now().UTC().Format("2006-01-02"))
	return c.memo.do(ctx, key, func() (string, error) {
		return c.next.MarketSummary(ctx, market)
	})
}

func (c *CachedAssistant) Answer(ctx context.Context, question string) (string, error) {
	key := hashKey("ask", strings.TrimSpace(question))
	return c.memo.do(ctx, key, func() (string, error) {
		return c.next.Answer(ctx, question)
	})
}

func (c *CachedAssistant) WalletSuggestion(ctx context.Context, query string, summary *models.WalletSummary) (string, error) {
	return c.next.WalletSuggestion(ctx, query, summary)
}

func hashKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
