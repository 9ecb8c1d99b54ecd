package fetch

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

const (
	defaultBaseDelay = 250 * time.Millisecond
	defaultMaxDelay  = 5 * time.Second
)

// backoff computes jittered exponential delays between attempts.
type backoff struct {
	base time.Duration
	max  time.Duration
}

// delay returns the wait before retry number n (0 for the first retry).
// The result lies in [d/2, d) where d = min(base*2^n, max).
func (b backoff) delay(n int) time.Duration {
	if b.base <= 0 {
		return 0
	}
	d := float64(b.base) * math.Pow(2, float64(n))
	if d > float64(b.max) {
		d = float64(b.max)
	}
	half := time.Duration(d / 2)
	return half + jitter(half)
}

func jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
