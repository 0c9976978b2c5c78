package auth

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/roli854/travelclick-htng-gateway/pkg/api"
)

// PropertyLimiter enforces a per-property request budget on the inbound
// endpoint, independent of pkg/transport's per-endpoint concurrency
// limit on the outbound side. A CRS peer that floods notifications for
// one property should not starve every other property sharing the
// gateway.
type PropertyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewPropertyLimiter(requestsPerMinute, burst int) *PropertyLimiter {
	return &PropertyLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (p *PropertyLimiter) forProperty(propertyID string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[propertyID]
	if !ok {
		l = rate.NewLimiter(p.rps, p.burst)
		p.limiters[propertyID] = l
	}
	return l
}

// RateLimitMiddleware enforces the per-property budget. It keys off the
// Principal attached to the request context with WithPrincipal, so it only
// limits requests whose context already carries one. Requests without a
// Principal fail open.
func RateLimitMiddleware(limiter *PropertyLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := GetPrincipal(r.Context())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			l := limiter.forProperty(principal.GetPropertyID())
			if !l.Allow() {
				api.WriteTooManyRequests(w, 1)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
