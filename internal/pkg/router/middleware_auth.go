package router

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpgate/internal/pkg/apikey"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

const (
	// HeaderAPIKey carries the tenant key on header-authenticated routes.
	HeaderAPIKey = "X-API-Key"
	// ParamAPIKey is the path parameter carrying the tenant key on keyed routes.
	ParamAPIKey = "apiKey"
)

type authMode int

const (
	authAccount authMode = iota
	authPublic
	authTenant
)

// endpointAuth lists every route that is not account (JWT) authenticated.
var endpointAuth = map[string]map[string]authMode{
	http.MethodGet: {
		"/health":                                          authPublic,
		"/api/user/plans":                                  authPublic,
		"/api/user/payment/callback":                       authPublic,
		"/api/:" + ParamAPIKey + "/send/:recipient":        authTenant,
		"/api/:" + ParamAPIKey + "/verify/:recipient/:otp": authTenant,
	},
	http.MethodPost: {
		"/api/user/register":                                   authPublic,
		"/api/user/login":                                      authPublic,
		"/api/send-otp":                                        authTenant,
		"/api/verify-otp":                                      authTenant,
		"/api/:" + ParamAPIKey + "/send/:recipient":            authTenant,
		"/api/:" + ParamAPIKey + "/verify/:recipient/:otp":     authTenant,
		"/api/otp/send/:" + ParamAPIKey + "/:recipient":        authTenant,
		"/api/otp/verify/:" + ParamAPIKey + "/:recipient/:otp": authTenant,
	},
}

type tenantGate struct {
	resolver apikey.Resolver
}

func modeOf(r *http.Request) authMode {
	if routes, ok := endpointAuth[r.Method]; ok {
		if mode, ok := routes[matchedRoutePath(r)]; ok {
			return mode
		}
	}
	return authAccount
}

func presentedKey(r *http.Request) string {
	if k := httprouter.ParamsFromContext(r.Context()).ByName(ParamAPIKey); k != "" {
		return k
	}
	return r.Header.Get(HeaderAPIKey)
}

func middlewareAuthentication(verifier jwt.JWT, tenants *tenantGate) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch modeOf(r) {
			case authPublic:
				next.ServeHTTP(w, r)

			case authTenant:
				raw := apikey.Normalize(presentedKey(r))
				if raw == "" {
					writeError(w, goerror.NewBusiness("API key is required", goerror.CodeUnauthorized))
					return
				}
				if tenants.resolver == nil {
					writeError(w, goerror.NewServer(nil))
					return
				}

				p, err := tenants.resolver.ResolveKey(r.Context(), raw)
				if err != nil {
					writeError(w, err)
					return
				}

				next.ServeHTTP(w, r.WithContext(apikey.Set(r.Context(), p)))

			default:
				p := strings.Fields(r.Header.Get("Authorization"))
				if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
					writeError(w, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized))
					return
				}

				claims, err := verifier.Verify(p[1])
				if err != nil {
					writeError(w, goerror.NewBusiness("Invalid or expired token", goerror.CodeUnauthorized))
					return
				}

				next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
			}
		})
	}
}
