package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether a request from client may proceed.
type RateLimiter interface {
	Allow(client string) bool
}

// InMemoryRateLimiter applies a global token bucket and one bucket per client.
// Idle client buckets are evicted periodically; when MaxClients is reached the
// least recently seen client is evicted to make room.
type InMemoryRateLimiter struct {
	global  *rate.Limiter
	clients map[string]*clientLimiter
	mu      sync.Mutex

	clientRPS   rate.Limit
	clientBurst int
	idleTimeout time.Duration
	maxClients  int
	trustProxy  bool

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
	now    func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewInMemoryRateLimiter starts a limiter with a background eviction loop; call Close to stop it.
func NewInMemoryRateLimiter(cfg *Config) *InMemoryRateLimiter {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = rateLimiterCleanupInterval
	}

	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = rateLimiterIdleTimeout
	}

	maxClients := cfg.MaxClients
	if maxClients <= 0 {
		maxClients = defaultMaxClients
	}

	rl := &InMemoryRateLimiter{
		global:      rate.NewLimiter(rate.Limit(cfg.GlobalRPS), burstFor(cfg.GlobalRPS, cfg.GlobalBurst)),
		clients:     make(map[string]*clientLimiter),
		clientRPS:   rate.Limit(cfg.ClientRPS),
		clientBurst: burstFor(cfg.ClientRPS, cfg.ClientBurst),
		idleTimeout: idle,
		maxClients:  maxClients,
		trustProxy:  cfg.TrustProxy,
		ticker:      time.NewTicker(interval),
		done:        make(chan struct{}),
		now:         time.Now,
	}

	go func() {
		for {
			select {
			case <-rl.ticker.C:
				rl.evictIdle()
			case <-rl.done:
				return
			}
		}
	}()

	return rl
}

// Allow checks the global bucket first, then the client's bucket.
func (rl *InMemoryRateLimiter) Allow(client string) bool {
	if !rl.global.Allow() {
		return false
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	cl, ok := rl.clients[client]
	if !ok {
		if len(rl.clients) >= rl.maxClients {
			rl.evictOldestLocked()
		}

		cl = &clientLimiter{limiter: rate.NewLimiter(rl.clientRPS, rl.clientBurst)}
		rl.clients[client] = cl
	}

	cl.lastSeen = now

	return cl.limiter.AllowN(now, 1)
}

// Clients returns the number of tracked client buckets.
func (rl *InMemoryRateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return len(rl.clients)
}

// Close stops the eviction loop. It is safe to call more than once.
func (rl *InMemoryRateLimiter) Close() {
	rl.once.Do(func() {
		rl.ticker.Stop()
		close(rl.done)
	})
}

func (rl *InMemoryRateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTimeout)

	for client, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, client)
		}
	}
}

func (rl *InMemoryRateLimiter) evictOldestLocked() {
	var (
		oldest   string
		lastSeen time.Time
	)

	for client, cl := range rl.clients {
		if oldest == "" || cl.lastSeen.Before(lastSeen) {
			oldest, lastSeen = client, cl.lastSeen
		}
	}

	delete(rl.clients, oldest)

	slog.Warn("Rate limiter client table full, evicted least recent client",
		slog.Int("max_clients", rl.maxClients))
}

// ClientKey identifies the caller of r: the first X-Forwarded-For hop when trustProxy
// is set, otherwise the host part of RemoteAddr.
func ClientKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// RateLimit rejects requests over the limit with a 429 problem response and a Retry-After of one second.
func RateLimit(limiter RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	trustProxy := false
	if rl, ok := limiter.(*InMemoryRateLimiter); ok {
		trustProxy = rl.trustProxy
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow(ClientKey(r, trustProxy)) {
				next.ServeHTTP(w, r)

				return
			}

			detail := "Rate limit exceeded. Please retry after some time."

			w.Header().Set("Retry-After", "1")

			if err := WriteProblem(w, NewProblem(r, http.StatusTooManyRequests, detail)); err != nil {
				logger.Error("Failed to write rate limit response",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
			}
		})
	}
}
