package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter tracks a token-bucket limiter per client id and evicts
// entries that have been idle longer than Expiry minutes.
type Limiter struct {
	Expiry   int
	Burst    int
	LimitRPS float64
	clients  map[string]*clientLimiter
	mu       sync.Mutex
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewLimiter(burst int, expiry int, limitRPS float64) *Limiter {
	lm := &Limiter{
		Expiry:   expiry,
		LimitRPS: limitRPS,
		Burst:    burst,
		clients:  make(map[string]*clientLimiter),
	}
	go lm.sweep()
	return lm
}

// Check reports whether the client identified by id is allowed to
// proceed, creating a fresh bucket on first sight.
func (l *Limiter) Check(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cl, ok := l.clients[id]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.LimitRPS), l.Burst)}
		l.clients[id] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter.Allow()
}

func (l *Limiter) sweep() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for range tick.C {
		l.mu.Lock()
		for id, v := range l.clients {
			if time.Since(v.lastAccess) > time.Duration(l.Expiry)*time.Minute {
				delete(l.clients, id)
			}
		}
		l.mu.Unlock()
	}
}

// Every converts a minimum interval between events to a rate in
// requests per second, suitable for NewLimiter.
func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
