// Package userstore keeps per-user favorites and profile data.
package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/onnwee/resep-nusantara/backend/internal/metrics"
)

// DefaultUsername is shown until the user picks one.
const DefaultUsername = "Pengguna"

const maxUsernameLen = 50

var (
	ErrInvalidUser        = errors.New("userstore: user id is required")
	ErrInvalidRecipe      = errors.New("userstore: recipe id is required")
	ErrInvalidUsername    = errors.New("userstore: username must be 1-50 characters")
	ErrInvalidAvatar      = errors.New("userstore: avatar must be an http(s) URL")
	ErrInvalidPreferences = errors.New("userstore: preferences must be a JSON object")
)

// Profile is the editable part of a user's page.
type Profile struct {
	Username    string          `json:"username"`
	Avatar      string          `json:"avatar,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}

// Store persists favorites and profiles. Favorites keep insertion order.
type Store interface {
	Favorites(ctx context.Context, user string) ([]string, error)
	IsFavorite(ctx context.Context, user, recipeID string) (bool, error)
	AddFavorite(ctx context.Context, user, recipeID string) error
	RemoveFavorite(ctx context.Context, user, recipeID string) error
	// ToggleFavorite flips membership and reports the new state.
	ToggleFavorite(ctx context.Context, user, recipeID string) (bool, error)

	Profile(ctx context.Context, user string) (Profile, error)
	UpdateUsername(ctx context.Context, user, username string) (Profile, error)
	UpdateAvatar(ctx context.Context, user, avatarURL string) (Profile, error)
	UpdatePreferences(ctx context.Context, user string, prefs json.RawMessage) (Profile, error)
}

func defaultProfile() Profile {
	return Profile{Username: DefaultUsername}
}

func checkIDs(user string, recipeID ...string) error {
	if strings.TrimSpace(user) == "" {
		return ErrInvalidUser
	}
	for _, id := range recipeID {
		if strings.TrimSpace(id) == "" {
			return ErrInvalidRecipe
		}
	}
	return nil
}

// NormalizeUsername trims the name and checks its length.
func NormalizeUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxUsernameLen {
		return "", ErrInvalidUsername
	}
	return name, nil
}

// validateAvatar accepts an empty string (clears the avatar) or an absolute
// http(s) URL.
func validateAvatar(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidAvatar
	}
	return raw, nil
}

func validatePreferences(prefs json.RawMessage) (json.RawMessage, error) {
	if len(prefs) == 0 || string(prefs) == "null" {
		return nil, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(prefs, &obj); err != nil {
		return nil, ErrInvalidPreferences
	}
	return prefs, nil
}

// IsValidation reports whether err is caused by bad input rather than the
// backing store.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidUser) ||
		errors.Is(err, ErrInvalidRecipe) ||
		errors.Is(err, ErrInvalidUsername) ||
		errors.Is(err, ErrInvalidAvatar) ||
		errors.Is(err, ErrInvalidPreferences)
}

// observe records the duration of op and counts store failures.
func observe(op string, start time.Time, err error) {
	metrics.UserStoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil && !IsValidation(err) {
		metrics.UserStoreOperationErrors.WithLabelValues(op).Inc()
	}
}
