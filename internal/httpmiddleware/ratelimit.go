package httpmiddleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// idleAfter is how long a client's bucket may sit full before it is dropped.
const idleAfter = 10 * time.Minute

// TokenBucket limits requests per client IP. Tokens refill continuously at
// perMinute/60 per second up to burst.
type TokenBucket struct {
	burst     float64
	perSecond float64
	mu        sync.Mutex
	clients   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewTokenBucket creates a limiter. A burst <= 0 defaults to perMinute;
// perMinute <= 0 disables limiting.
func NewTokenBucket(burst, perMinute int) *TokenBucket {
	if burst <= 0 {
		burst = perMinute
	}
	return &TokenBucket{
		burst:     float64(burst),
		perSecond: float64(perMinute) / 60,
		clients:   make(map[string]*bucket),
		now:       time.Now,
	}
}

// GinMiddleware rejects over-limit clients with 429 and a Retry-After hint.
func (l *TokenBucket) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.perSecond <= 0 {
			c.Next()
			return
		}
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if wait, ok := l.take(key); !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// take spends one token for key, or reports how long until one is available.
func (l *TokenBucket) take(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)

	b, ok := l.clients[key]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.clients[key] = b
	}
	b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.seen).Seconds()*l.perSecond)
	b.seen = now

	if b.tokens < 1 {
		return time.Duration((1 - b.tokens) / l.perSecond * float64(time.Second)), false
	}
	b.tokens--
	return 0, true
}

func (l *TokenBucket) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleAfter {
		return
	}
	l.lastSweep = now
	for key, b := range l.clients {
		if now.Sub(b.seen) >= idleAfter {
			delete(l.clients, key)
		}
	}
}
