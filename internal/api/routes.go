package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/resep-nusantara/backend/internal/api/handlers"
	"github.com/onnwee/resep-nusantara/backend/internal/apierr"
	"github.com/onnwee/resep-nusantara/backend/internal/cache"
	"github.com/onnwee/resep-nusantara/backend/internal/circuitbreaker"
	"github.com/onnwee/resep-nusantara/backend/internal/config"
	"github.com/onnwee/resep-nusantara/backend/internal/middleware"
	"github.com/onnwee/resep-nusantara/backend/internal/querycache"
	"github.com/onnwee/resep-nusantara/backend/internal/userstore"
)

// Deps are the collaborators the HTTP API is built from. Fallback,
// Upstream, Hub and RateLimiter are optional.
type Deps struct {
	Config      *config.Config
	Recipes     handlers.RecipeService
	Users       userstore.Store
	Query       *querycache.Cache
	Fallback    cache.Cache
	Upstream    func() circuitbreaker.State
	Hub         *handlers.Hub
	RateLimiter *middleware.RateLimiter
}

// NewRouter wires every route and the middleware chain.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		apierr.WriteErrorWithContext(w, req, apierr.ResourceNotFound("route"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		apierr.WriteErrorWithContext(w, req,
			apierr.New(apierr.ErrValidationInvalidValue, "Method not allowed", http.StatusMethodNotAllowed))
	})

	r.Use(middleware.Metrics)

	r.HandleFunc("/health", handlers.Health(d.Upstream)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Recipes: the browser revalidates with ETag instead of holding its own copy.
	rh := handlers.NewRecipeHandler(d.Recipes)
	reads := api.PathPrefix("/recipes").Subrouter()
	reads.Use(middleware.Compress, middleware.ETag(0))
	reads.HandleFunc("", rh.List).Methods("GET")
	reads.HandleFunc("/{id}", rh.Get).Methods("GET")
	api.HandleFunc("/recipes/{id}/refresh", rh.Refresh).Methods("POST")

	// Favorites and profile
	fh := handlers.NewFavoritesHandler(d.Users, d.Recipes)
	ph := handlers.NewProfileHandler(d.Users)
	users := api.PathPrefix("/users/{user}").Subrouter()
	users.HandleFunc("/favorites", fh.List).Methods("GET")
	users.HandleFunc("/favorites/{id}", fh.Add).Methods("PUT")
	users.HandleFunc("/favorites/{id}", fh.Remove).Methods("DELETE")
	users.HandleFunc("/favorites/{id}/toggle", fh.Toggle).Methods("POST")
	users.HandleFunc("/profile", ph.Get).Methods("GET")
	users.HandleFunc("/profile", ph.Patch).Methods("PATCH")

	// Admin
	ch := handlers.NewCacheAdminHandler(d.Query, d.Fallback)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminOnly(d.Config.AdminAPIToken))
	admin.HandleFunc("/cache/stats", ch.GetCacheStats).Methods("GET")
	admin.HandleFunc("/cache/invalidate", ch.InvalidateCache).Methods("POST")
	if d.Config.EnablePprof {
		admin.PathPrefix("/debug/pprof").Handler(handlers.Profiling("/api/admin/debug/pprof"))
	}

	if d.Hub != nil {
		api.HandleFunc("/ws/cache", handlers.NewWebSocketHandler(d.Hub).HandleWebSocket).Methods("GET")
	}

	return chain(r, d)
}

// chain wraps the router in the global middleware. RequestID ends up
// outermost so every later layer can log the id.
func chain(h http.Handler, d Deps) http.Handler {
	h = middleware.ValidateRequestBody(h)
	if d.RateLimiter != nil {
		h = d.RateLimiter.Limit(h)
	}
	h = middleware.CORS(middleware.CORSFromConfig(d.Config))(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.RecoverWithSentry(h)
	h = middleware.RequestID(h)
	return h
}

// adminOnly requires "Authorization: Bearer <token>". An empty token leaves
// the admin routes open, which is only meant for local development.
func adminOnly(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				apierr.WriteErrorWithContext(w, r, apierr.AuthMissing(""))
				return
			}
			got, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				apierr.WriteErrorWithContext(w, r, apierr.AuthInvalid(""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
