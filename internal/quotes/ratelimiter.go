package quotes

import (
	"sync"
	"time"
)

// tokenBucket is a rate/per/burst limiter that also tracks consecutive
// provider failures and self-pauses for pauseDuration once
// maxConsecutive is hit, matching
// original_source/backend/app/rate_limiter.py's "back off, don't
// hammer a failing provider" behavior.
type tokenBucket struct {
	mu sync.Mutex

	rate  int
	per   time.Duration
	burst int

	tokens     float64
	lastRefill time.Time

	maxConsecutive int
	pauseDuration  time.Duration
	consecutive    int
	pausedUntil    time.Time
}

func newTokenBucket(rate int, per time.Duration, burst, maxConsecutive int, pauseDuration time.Duration) *tokenBucket {
	return &tokenBucket{
		rate: rate, per: per, burst: burst,
		tokens: float64(burst), lastRefill: time.Now(),
		maxConsecutive: maxConsecutive, pauseDuration: pauseDuration,
	}
}

// Allow reports whether a request may proceed now, refilling tokens
// based on elapsed time and respecting any active failure pause.
func (b *tokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Before(b.pausedUntil) {
		return false
	}

	elapsed := now.Sub(b.lastRefill)
	refill := elapsed.Seconds() / b.per.Seconds() * float64(b.rate)
	b.tokens += refill
	if b.tokens > float64(b.burst) {
		b.tokens = float64(b.burst)
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RecordSuccess resets the consecutive-failure counter.
func (b *tokenBucket) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
}

// RecordFailure increments the consecutive-failure counter, pausing
// the bucket once maxConsecutive is reached.
func (b *tokenBucket) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive++
	if b.consecutive >= b.maxConsecutive {
		b.pausedUntil = time.Now().Add(b.pauseDuration)
	}
}
