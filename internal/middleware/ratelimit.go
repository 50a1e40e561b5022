package middleware

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"handyhub/internal/config"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// tokenBucketScript refills and takes one token atomically. Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// localLimiter is the per-process fallback used when Redis is unavailable
type localLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	limit := rate.Inf
	if cfg.RefillInterval > 0 && cfg.RefillTokens > 0 {
		limit = rate.Limit(float64(cfg.RefillTokens) / cfg.RefillInterval.Seconds())
	}
	return &localLimiter{visitors: make(map[string]*visitor), limit: limit, burst: cfg.Capacity, ttl: cfg.TTL}
}

func (l *localLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// evict idle keys on the way
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, k)
		}
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// RateLimit applies a token bucket per client IP and route. Redis holds the buckets when rdb is set.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	local := newLocalLimiter(cfg)

	return func(c *gin.Context) {
		key := strings.Join([]string{cfg.Prefix, "ip", c.ClientIP(), "route", c.Request.Method + " " + c.FullPath()}, ":")
		now := time.Now()

		allowed, retry := true, time.Duration(0)
		if rdb != nil {
			var err error
			allowed, retry, err = redisAllow(c, rdb, cfg, key, now)
			if err != nil {
				log.Printf("ratelimit: redis unavailable for key=%s, using local limiter: %v", key, err)
				allowed, retry = local.allow(key, now)
			}
		} else {
			allowed, retry = local.allow(key, now)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		if !allowed {
			secs := int(math.Ceil(retry.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Error("Too many requests. Please try again later", nil))
			return
		}
		c.Next()
	}
}

func redisAllow(c *gin.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string, now time.Time) (bool, time.Duration, error) {
	args := []interface{}{
		now.UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL / time.Second),
	}
	vals, err := tokenBucketScript.Run(c.Request.Context(), rdb, []string{key}, args...).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(vals) != 3 {
		return false, 0, fmt.Errorf("unexpected script result %v", vals)
	}
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(vals[1], 10))
	return vals[0] == 1, time.Duration(vals[2]) * time.Millisecond, nil
}
