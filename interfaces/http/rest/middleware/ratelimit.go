package middleware

import (
	"net/http"

	"github.com/TorresLabs/aika-server/pkg/common"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
	"github.com/TorresLabs/aika-server/pkg/ratelimit"
)

// RateLimit rejects requests once the caller's budget is spent. Callers are
// keyed by account id, or by remote address when the request carries none.
func RateLimit(limiter ratelimit.Limiter, errorHandler *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + r.RemoteAddr
			if accountID, ok := common.GetAccountID(r.Context()); ok {
				key = "account:" + accountID
			}

			if !limiter.Allow(r.Context(), key) {
				errorHandler.Handle(w, r, pkgerrors.NewRateLimitError("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
