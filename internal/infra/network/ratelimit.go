package network

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per client key (usually the remote IP)
// and forgets buckets that have been idle longer than ttl.

type KeyedLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	buckets map[string]*bucket
	lastGC  time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewKeyedLimiter(perSecond float64, burst int, ttl time.Duration) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{limit: rate.Limit(perSecond), burst: burst, ttl: ttl, buckets: make(map[string]*bucket), lastGC: time.Now()}
}

func (k *KeyedLimiter) Allow(key string, now time.Time) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.gc(now)
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

func (k *KeyedLimiter) gc(now time.Time) {
	if k.ttl <= 0 || now.Sub(k.lastGC) < k.ttl {
		return
	}
	k.lastGC = now
	for key, b := range k.buckets {
		if now.Sub(b.seen) > k.ttl {
			delete(k.buckets, key)
		}
	}
}
