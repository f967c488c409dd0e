package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/ingestvault/pkg/configs"
)

const (
	limiterSweepEvery   = time.Minute
	rateLimitedResponse = "rate limit exceeded, please try again later"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiter 按键维护 limiter，闲置超过 idleTTL 的在下次清扫时移除.
type keyedLimiter struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	visitors  map[string]*visitor
	lastSweep time.Time
}

func (k *keyedLimiter) allow(key string, now time.Time) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if now.Sub(k.lastSweep) > limiterSweepEvery {
		for key, v := range k.visitors {
			if now.Sub(v.lastSeen) > k.idleTTL {
				delete(k.visitors, key)
			}
		}

		k.lastSweep = now
	}

	v, ok := k.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(k.rps, k.burst)}
		k.visitors[key] = v
	}

	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

// RateLimitMiddleware 返回一个基于配置的限流中间件.
// Key 取值：global、ip、site（按调用方站点）、header:Header-Name.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := cfg.KeyMode()
	if keyMode == configs.RateKeyGlobal {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitedResponse})
				return
			}

			c.Next()
		}
	}

	limiters := &keyedLimiter{
		rps:      rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
		idleTTL:  cfg.IdleTTL(),
		visitors: map[string]*visitor{},
	}

	return func(c *gin.Context) {
		if !limiters.allow(rateKey(c, keyMode), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitedResponse})
			return
		}

		c.Next()
	}
}

func rateKey(c *gin.Context, mode string) string {
	var key string

	switch {
	case strings.HasPrefix(mode, configs.RateKeyHeaderPrefix):
		key = c.GetHeader(strings.TrimPrefix(mode, configs.RateKeyHeaderPrefix))
	case mode == configs.RateKeySite:
		key = GetIdentity(c).SiteID
	}

	if key == "" {
		key = clientIP(c)
	}

	if key == "" {
		key = "unknown"
	}

	return key
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return host
}
