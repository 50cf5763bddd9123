package realtime

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	reconnectBaseDelay   = time.Second
	reconnectMaxDelay    = 30 * time.Second
	reconnectMaxAttempts = 10

	// A connection that survived this long resets the attempt counter.
	stableConnectionAge = time.Minute
)

// reconnector produces exponentially growing, jittered delays between
// reconnect attempts and gives up after reconnectMaxAttempts failures in
// a row.
type reconnector struct {
	mu          sync.Mutex
	attempt     int
	connectedAt time.Time
}

func newReconnector() *reconnector {
	return &reconnector{}
}

func (r *reconnector) shouldReconnect() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempt < reconnectMaxAttempts
}

func (r *reconnector) markConnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectedAt = time.Now()
}

func (r *reconnector) nextDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connectedAt.IsZero() && time.Since(r.connectedAt) > stableConnectionAge {
		r.attempt = 0
	}

	jitter := time.Duration(rand.Float64() * float64(reconnectBaseDelay) * 0.5)
	delay := time.Duration(math.Min(
		float64(reconnectBaseDelay)*math.Pow(2, float64(r.attempt))+float64(jitter),
		float64(reconnectMaxDelay),
	))
	r.attempt++

	return delay
}

func (r *reconnector) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempt = 0
	r.connectedAt = time.Time{}
}
