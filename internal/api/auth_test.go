package api

import (
	"net/http"
	"testing"

	"github.com/onnwee/resep-nusantara/backend/internal/config"
	"github.com/onnwee/resep-nusantara/backend/internal/querycache"
	"github.com/onnwee/resep-nusantara/backend/internal/recipes"
	"github.com/onnwee/resep-nusantara/backend/internal/userstore"
)

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name           string
		adminToken     string
		authHeader     string
		expectedStatus int
	}{
		{"valid token", "test-admin-token-123", "Bearer test-admin-token-123", http.StatusOK},
		{"invalid token", "test-admin-token-123", "Bearer wrong-token", http.StatusUnauthorized},
		{"missing token", "test-admin-token-123", "", http.StatusUnauthorized},
		{"malformed bearer token", "test-admin-token-123", "Bearertest-admin-token-123", http.StatusUnauthorized},
		{"wrong auth scheme", "test-admin-token-123", "Basic dGVzdDp0ZXN0", http.StatusUnauthorized},
		{"token not configured", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.adminToken)
			header := map[string]string{}
			if tt.authHeader != "" {
				header["Authorization"] = tt.authHeader
			}
			rr := env.do("GET", "/api/admin/cache/stats", "", header)
			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d (%s)", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAdminInvalidateRequiresAuth(t *testing.T) {
	env := newTestEnv(t, "secret")
	env.query.Set("recipe_1", "x")

	rr := env.do("POST", "/api/admin/cache/invalidate", `{"all":true}`, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if env.query.Len() != 1 {
		t.Error("unauthenticated request must not invalidate")
	}

	rr = env.do("POST", "/api/admin/cache/invalidate", `{"all":true}`, map[string]string{"Authorization": "Bearer secret"})
	if rr.Code != http.StatusOK || env.query.Len() != 0 {
		t.Errorf("status = %d, Len = %d", rr.Code, env.query.Len())
	}
}

func TestProfilingBehindAdminAuth(t *testing.T) {
	h := NewRouter(Deps{
		Config:  &config.Config{AdminAPIToken: "secret", EnablePprof: true},
		Recipes: recipes.NewService(&countingFetcher{}, querycache.New(querycache.Options{Name: "pprof-test"})),
		Users:   userstore.NewMemoryStore(),
		Query:   querycache.New(querycache.Options{Name: "pprof-test"}),
	})
	env := &testEnv{handler: h}

	if rr := env.do("GET", "/api/admin/debug/pprof/", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rr.Code)
	}
	rr := env.do("GET", "/api/admin/debug/pprof/", "", map[string]string{"Authorization": "Bearer secret"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", rr.Code)
	}

	// Disabled by default.
	env = newTestEnv(t, "")
	if rr := env.do("GET", "/api/admin/debug/pprof/", "", nil); rr.Code != http.StatusNotFound {
		t.Errorf("status when disabled = %d, want 404", rr.Code)
	}
}
