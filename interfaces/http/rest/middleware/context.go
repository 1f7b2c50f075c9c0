package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/pkg/common"
)

// RequestContext stores the verified account id and the request id in the
// request context, together with a logger carrying both. The account id
// header is set by the upstream authorizer and trusted as is.
func RequestContext(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = common.ExtractRequestID(r)
			}
			accountID := strings.TrimSpace(r.Header.Get(common.HeaderAccountID))

			ctx := common.EnrichContext(r.Context(), logger, accountID, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
