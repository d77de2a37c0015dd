package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayo6706/otc-ledger/internal/api/problem"
	"github.com/go-chi/httprate"
)

// PublicRateLimiter limits unauthenticated routes, token issuance included, per client IP.
func PublicRateLimiter(rps int) func(http.Handler) http.Handler {
	return httprate.Limit(rps, time.Second,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(limitExceeded(rps, "client IP")),
	)
}

// AuthRateLimiter limits authenticated callers. All tokens of one operator
// share a bucket; administrators are limited per user.
func AuthRateLimiter(rps int) func(http.Handler) http.Handler {
	return httprate.Limit(rps, time.Second,
		httprate.WithKeyFuncs(principalKey),
		httprate.WithLimitHandler(limitExceeded(rps, "caller")),
	)
}

func principalKey(r *http.Request) (string, error) {
	p, ok := PrincipalFromContext(r.Context())
	switch {
	case !ok:
		return httprate.KeyByIP(r)
	case p.OperatorID != nil:
		return "operator:" + p.OperatorID.String(), nil
	default:
		return "user:" + p.UserID.String(), nil
	}
}

func limitExceeded(rps int, scope string) http.HandlerFunc {
	detail := fmt.Sprintf("rate limit of %d req/s exceeded for this %s", rps, scope)
	return func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusTooManyRequests, problem.Type("rate-limit-exceeded"), "", detail)
	}
}
