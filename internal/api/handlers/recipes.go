package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/onnwee/resep-nusantara/backend/internal/apierr"
	"github.com/onnwee/resep-nusantara/backend/internal/middleware"
	"github.com/onnwee/resep-nusantara/backend/internal/recipes"
)

const maxListLimit = 100

// RecipeReader is the read side of recipes.Service.
type RecipeReader interface {
	Get(ctx context.Context, id string) (recipes.Recipe, bool, error)
}

// RecipeService is implemented by *recipes.Service.
type RecipeService interface {
	RecipeReader
	List(ctx context.Context, p recipes.ListParams) (recipes.ListResult, bool, error)
	Refresh(id string) int
}

// RecipeHandler serves recipe lists and details through the query cache.
type RecipeHandler struct {
	svc RecipeService
}

func NewRecipeHandler(svc RecipeService) *RecipeHandler {
	return &RecipeHandler{svc: svc}
}

// List handles GET /api/recipes?page=&limit=&category=&search=
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, aerr := intParam(q.Get("page"), "page", 0)
	if aerr != nil {
		apierr.WriteErrorWithContext(w, r, aerr)
		return
	}
	limit, aerr := intParam(q.Get("limit"), "limit", maxListLimit)
	if aerr != nil {
		apierr.WriteErrorWithContext(w, r, aerr)
		return
	}

	res, hit, err := h.svc.List(r.Context(), recipes.ListParams{
		Page:     page,
		Limit:    limit,
		Category: q.Get("category"),
		Search:   q.Get("search"),
	})
	if err != nil {
		apierr.WriteErrorWithContext(w, r, recipeError("", err))
		return
	}
	setCacheStatus(w, hit)
	writeJSON(w, http.StatusOK, res)
}

// Get handles GET /api/recipes/{id}
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, hit, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, recipeError(id, err))
		return
	}
	setCacheStatus(w, hit)
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

// Refresh handles POST /api/recipes/{id}/refresh
func (h *RecipeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed := h.svc.Refresh(id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "removed": removed})
}

func setCacheStatus(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set(middleware.CacheStatusHeader, "HIT")
	} else {
		w.Header().Set(middleware.CacheStatusHeader, "MISS")
	}
}

// intParam parses a non-negative integer query parameter. max of 0 means
// unbounded.
func intParam(raw, name string, max int) (int, *apierr.Error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apierr.ValidationInvalidValue(name, name+" must be a positive integer")
	}
	if max > 0 && n > max {
		return 0, apierr.ValidationInvalidValue(name, name+" must be at most "+strconv.Itoa(max))
	}
	return n, nil
}
