package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onnwee/resep-nusantara/backend/internal/apierr"
	"github.com/onnwee/resep-nusantara/backend/internal/circuitbreaker"
	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/recipes"
	"github.com/onnwee/resep-nusantara/backend/internal/userstore"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// recipeError maps a recipe read failure to an API error.
func recipeError(id string, err error) *apierr.Error {
	var env *recipes.EnvelopeError
	switch {
	case errors.Is(err, recipes.ErrMissingID):
		return apierr.ValidationMissingField("id")
	case errors.Is(err, recipes.ErrNotFound):
		return apierr.RecipeNotFound(id)
	case errors.As(err, &env):
		return apierr.RecipeUpstream(env.Message)
	case errors.Is(err, recipes.ErrMalformed):
		return apierr.RecipeMalformed()
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return apierr.RecipeUnavailable()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apierr.SystemTimeout("")
	case errors.Is(err, recipes.ErrUnavailable):
		return apierr.RecipeUpstream("")
	default:
		return apierr.SystemInternal("")
	}
}

// userError maps a userstore failure to an API error.
func userError(r *http.Request, op string, err error) *apierr.Error {
	switch {
	case errors.Is(err, userstore.ErrInvalidUsername):
		return apierr.UserInvalidUsername("")
	case errors.Is(err, userstore.ErrInvalidUser):
		return apierr.ValidationMissingField("user")
	case errors.Is(err, userstore.ErrInvalidRecipe):
		return apierr.ValidationMissingField("id")
	case errors.Is(err, userstore.ErrInvalidAvatar):
		return apierr.ValidationInvalidValue("avatar", err.Error())
	case errors.Is(err, userstore.ErrInvalidPreferences):
		return apierr.ValidationInvalidValue("preferences", err.Error())
	}
	logger.ErrorContext(r.Context(), "user store operation failed", "op", op, "error", err)
	return apierr.UserStore("")
}
