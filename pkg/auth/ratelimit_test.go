package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/auth"
)

func withPrincipal(r *http.Request, propertyID string) *http.Request {
	ctx := auth.WithPrincipal(r.Context(), &auth.BasePrincipal{PropertyID: propertyID})
	return r.WithContext(ctx)
}

func TestRateLimitMiddleware_UnderLimit(t *testing.T) {
	limiter := auth.NewPropertyLimiter(60, 10)
	handler := auth.RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := withPrincipal(httptest.NewRequest("POST", "/htng", nil), "HOTEL001")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware_OverLimit(t *testing.T) {
	limiter := auth.NewPropertyLimiter(1, 1)
	handler := auth.RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := withPrincipal(httptest.NewRequest("POST", "/htng", nil), "HOTEL001")
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1)
	require.Equal(t, http.StatusOK, w1.Code)

	req2 := withPrincipal(httptest.NewRequest("POST", "/htng", nil), "HOTEL001")
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.NotEmpty(t, w2.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_IsolatesByProperty(t *testing.T) {
	limiter := auth.NewPropertyLimiter(1, 1)
	handler := auth.RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	reqA := withPrincipal(httptest.NewRequest("POST", "/htng", nil), "HOTEL001")
	handler.ServeHTTP(httptest.NewRecorder(), reqA)

	reqB := withPrincipal(httptest.NewRequest("POST", "/htng", nil), "HOTEL002")
	wB := httptest.NewRecorder()
	handler.ServeHTTP(wB, reqB)

	assert.Equal(t, http.StatusOK, wB.Code, "a different property's budget must be unaffected")
}
