package redisserver

import (
	"net"

	"golang.org/x/time/rate"

	"github.com/yndnr/pcd-go/pkg/cmap"
)

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *cmap.Map[*rate.Limiter]
}

// newRateLimiter returns nil when perSecond is not positive.
func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		buckets: cmap.New[*rate.Limiter](),
	}
}

// allow reports whether a request from ip may proceed.
func (rl *rateLimiter) allow(ip string) bool {
	if rl == nil {
		return true
	}
	lim, ok := rl.buckets.Get(ip)
	if !ok {
		rl.buckets.SetIfAbsent(ip, rate.NewLimiter(rl.limit, rl.burst))
		lim, _ = rl.buckets.Get(ip)
	}
	return lim.Allow()
}

// prune drops buckets that have refilled completely; a client that comes
// back simply starts with a full bucket again.
func (rl *rateLimiter) prune() int {
	if rl == nil {
		return 0
	}
	var idle []string
	rl.buckets.Range(func(ip string, lim *rate.Limiter) bool {
		if lim.Tokens() >= float64(rl.burst) {
			idle = append(idle, ip)
		}
		return true
	})
	for _, ip := range idle {
		rl.buckets.Delete(ip)
	}
	return len(idle)
}

// hostOf strips the port from a remote address.
func hostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
