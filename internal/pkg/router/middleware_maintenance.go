package router

import (
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// middlewareMaintenance blocks the route patterns listed in app.maintenance.endpoints.
// The list is read per request so it follows config reloads.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil {
				route := matchedRoutePath(r)
				for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
					if endpoint == route || endpoint == "*" {
						writeJSON(w, errorResponse{
							Message: "service is under maintenance",
							Code:    goerror.CodeInternal.String(),
						}, http.StatusServiceUnavailable)
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
