package httpx

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter *rate.Limiter
	last    atomic.Int64 // unix nanos
}

// IPLimiter is a token bucket per client IP.
type IPLimiter struct {
	rps   rate.Limit
	burst int
	ips   sync.Map // map[string]*ipLimiter
	now   func() time.Time
}

func NewIPLimiter(rps float64, burst int) *IPLimiter {
	return &IPLimiter{rps: rate.Limit(rps), burst: burst, now: time.Now}
}

func (l *IPLimiter) get(ip string) *ipLimiter {
	if v, ok := l.ips.Load(ip); ok {
		return v.(*ipLimiter)
	}
	v, _ := l.ips.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)})
	return v.(*ipLimiter)
}

func (l *IPLimiter) Allow(ip string) bool {
	il := l.get(ip)
	now := l.now()
	il.last.Store(now.UnixNano())
	return il.limiter.AllowN(now, 1)
}

func (l *IPLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}

// Sweep forgets IPs idle for longer than maxIdle.
func (l *IPLimiter) Sweep(maxIdle time.Duration) {
	cutoff := l.now().Add(-maxIdle).UnixNano()
	l.ips.Range(func(key, val any) bool {
		if val.(*ipLimiter).last.Load() < cutoff {
			l.ips.Delete(key)
		}
		return true
	})
}

// Run sweeps every 5 minutes until ctx is done.
func (l *IPLimiter) Run(ctx context.Context) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep(30 * time.Minute)
		}
	}
}
