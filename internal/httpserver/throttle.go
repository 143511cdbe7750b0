package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdle = 30 * time.Minute

type ownerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ownerThrottle keeps one token bucket per cart owner. Buckets idle for longer than
// limiterIdle are dropped on the next sweep.
type ownerThrottle struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*ownerLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newOwnerThrottle(perMinute int) *ownerThrottle {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &ownerThrottle{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		limiters: make(map[string]*ownerLimiter),
		now:      time.Now,
	}
}

func (t *ownerThrottle) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if now.Sub(t.lastSweep) > limiterIdle {
		for k, l := range t.limiters {
			if now.Sub(l.lastSeen) > limiterIdle {
				delete(t.limiters, k)
			}
		}
		t.lastSweep = now
	}
	l, ok := t.limiters[key]
	if !ok {
		l = &ownerLimiter{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[key] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// middleware must run after the actor has been resolved.
func (t *ownerThrottle) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.Next()
			return
		}
		if !t.allow(actor.Owner.UsageIdentity()) {
			c.Header("Retry-After", "60")
			abortWithError(c, http.StatusTooManyRequests, "too many offer attempts, slow down")
			return
		}
		c.Next()
	}
}
