package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/onnwee/resep-nusantara/backend/internal/apierr"
	"github.com/onnwee/resep-nusantara/backend/internal/middleware"
	"github.com/onnwee/resep-nusantara/backend/internal/userstore"
)

// ProfileHandler reads and edits a user's profile.
type ProfileHandler struct {
	store userstore.Store
}

func NewProfileHandler(store userstore.Store) *ProfileHandler {
	return &ProfileHandler{store: store}
}

type profilePatch struct {
	Username    *string         `json:"username"`
	Avatar      *string         `json:"avatar"`
	Preferences json.RawMessage `json:"preferences"`
}

// Get handles GET /api/users/{user}/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profile(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		apierr.WriteErrorWithContext(w, r, userError(r, "profile", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

// Patch handles PATCH /api/users/{user}/profile. Only the fields present in
// the body are changed.
func (h *ProfileHandler) Patch(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	var patch profilePatch
	if aerr := middleware.DecodeJSON(r, &patch, false); aerr != nil {
		apierr.WriteErrorWithContext(w, r, aerr)
		return
	}
	if patch.Username == nil && patch.Avatar == nil && patch.Preferences == nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("username, avatar or preferences"))
		return
	}

	ctx := r.Context()
	var (
		p   userstore.Profile
		err error
	)
	if patch.Username != nil {
		if p, err = h.store.UpdateUsername(ctx, user, *patch.Username); err != nil {
			apierr.WriteErrorWithContext(w, r, userError(r, "update_username", err))
			return
		}
	}
	if patch.Avatar != nil {
		if p, err = h.store.UpdateAvatar(ctx, user, *patch.Avatar); err != nil {
			apierr.WriteErrorWithContext(w, r, userError(r, "update_avatar", err))
			return
		}
	}
	if patch.Preferences != nil {
		if p, err = h.store.UpdatePreferences(ctx, user, patch.Preferences); err != nil {
			apierr.WriteErrorWithContext(w, r, userError(r, "update_preferences", err))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}
