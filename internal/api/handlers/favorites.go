package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/onnwee/resep-nusantara/backend/internal/apierr"
	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/recipes"
	"github.com/onnwee/resep-nusantara/backend/internal/userstore"
)

// FavoritesHandler manages a user's favorite recipes.
type FavoritesHandler struct {
	store   userstore.Store
	recipes RecipeReader
}

func NewFavoritesHandler(store userstore.Store, rr RecipeReader) *FavoritesHandler {
	return &FavoritesHandler{store: store, recipes: rr}
}

// List handles GET /api/users/{user}/favorites. With ?expand=1 each id is
// resolved to its recipe; ids the API no longer knows are skipped.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	ids, err := h.store.Favorites(r.Context(), user)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, userError(r, "favorites", err))
		return
	}
	if ids == nil {
		ids = []string{}
	}

	switch r.URL.Query().Get("expand") {
	case "", "0", "false":
		writeJSON(w, http.StatusOK, map[string]any{"data": ids})
		return
	}

	out := make([]recipes.Recipe, 0, len(ids))
	missing := []string{}
	for _, id := range ids {
		rec, _, err := h.recipes.Get(r.Context(), id)
		switch {
		case err == nil:
			out = append(out, rec)
		case recipeError(id, err).Status() == http.StatusNotFound:
			missing = append(missing, id)
		default:
			apierr.WriteErrorWithContext(w, r, recipeError(id, err))
			return
		}
	}
	if len(missing) > 0 {
		logger.DebugContext(r.Context(), "favorites reference unknown recipes", "user", user, "ids", missing)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out, "missing": missing})
}

// Add handles PUT /api/users/{user}/favorites/{id}
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.AddFavorite(r.Context(), vars["user"], vars["id"]); err != nil {
		apierr.WriteErrorWithContext(w, r, userError(r, "add_favorite", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": vars["id"], "favorite": true})
}

// Remove handles DELETE /api/users/{user}/favorites/{id}
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.RemoveFavorite(r.Context(), vars["user"], vars["id"]); err != nil {
		apierr.WriteErrorWithContext(w, r, userError(r, "remove_favorite", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": vars["id"], "favorite": false})
}

// Toggle handles POST /api/users/{user}/favorites/{id}/toggle
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	on, err := h.store.ToggleFavorite(r.Context(), vars["user"], vars["id"])
	if err != nil {
		apierr.WriteErrorWithContext(w, r, userError(r, "toggle_favorite", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": vars["id"], "favorite": on})
}
