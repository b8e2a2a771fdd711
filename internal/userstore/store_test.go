package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"  Budi  ", "Budi", false},
		{"", "", true},
		{"   ", "", true},
		{strings.Repeat("a", 50), strings.Repeat("a", 50), false},
		{strings.Repeat("a", 51), "", true},
		{strings.Repeat("é", 50), strings.Repeat("é", 50), false},
	}
	for _, tt := range tests {
		got, err := NormalizeUsername(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeUsername(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateAvatar(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"", true},
		{"https://cdn.example.com/a.png", true},
		{"http://example.com/a.png", true},
		{"ftp://example.com/a.png", false},
		{"/relative.png", false},
		{"javascript:alert(1)", false},
	}
	for _, tt := range tests {
		_, err := validateAvatar(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("validateAvatar(%q) err = %v", tt.in, err)
		}
	}
}

func TestWrapSchemaMissing(t *testing.T) {
	err := wrap("list favorites", &pq.Error{Code: "42P01"})
	if !errors.Is(err, ErrSchemaMissing) {
		t.Errorf("err = %v, want ErrSchemaMissing", err)
	}
	if wrap("noop", nil) != nil {
		t.Error("wrap(nil) should be nil")
	}
}

// exerciseStore runs the shared behavior checks against any Store.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	user := "user-1"

	t.Run("favorites keep insertion order", func(t *testing.T) {
		for _, id := range []string{"3", "1", "2", "1"} {
			if err := s.AddFavorite(ctx, user, id); err != nil {
				t.Fatalf("AddFavorite(%s): %v", id, err)
			}
		}
		got, err := s.Favorites(ctx, user)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"3", "1", "2"}, got); diff != "" {
			t.Errorf("favorites mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("toggle flips membership", func(t *testing.T) {
		on, err := s.ToggleFavorite(ctx, user, "1")
		if err != nil || on {
			t.Fatalf("toggle off: on=%v err=%v", on, err)
		}
		if ok, _ := s.IsFavorite(ctx, user, "1"); ok {
			t.Error("1 should no longer be a favorite")
		}
		on, err = s.ToggleFavorite(ctx, user, "1")
		if err != nil || !on {
			t.Fatalf("toggle on: on=%v err=%v", on, err)
		}
		got, _ := s.Favorites(ctx, user)
		if diff := cmp.Diff([]string{"3", "2", "1"}, got); diff != "" {
			t.Errorf("favorites mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := s.RemoveFavorite(ctx, user, "3"); err != nil {
				t.Fatal(err)
			}
		}
		if ok, _ := s.IsFavorite(ctx, user, "3"); ok {
			t.Error("3 should be removed")
		}
	})

	t.Run("empty ids rejected", func(t *testing.T) {
		if err := s.AddFavorite(ctx, "", "1"); !errors.Is(err, ErrInvalidUser) {
			t.Errorf("err = %v", err)
		}
		if _, err := s.ToggleFavorite(ctx, user, " "); !errors.Is(err, ErrInvalidRecipe) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("profile defaults and updates", func(t *testing.T) {
		p, err := s.Profile(ctx, "fresh-user")
		if err != nil || p.Username != DefaultUsername {
			t.Fatalf("default profile = %+v err=%v", p, err)
		}

		p, err = s.UpdateUsername(ctx, user, "  Siti ")
		if err != nil || p.Username != "Siti" {
			t.Fatalf("UpdateUsername = %+v err=%v", p, err)
		}
		first := p.UpdatedAt

		p, err = s.UpdateUsername(ctx, user, "Siti")
		if err != nil || !p.UpdatedAt.Equal(first) {
			t.Errorf("unchanged username should be a no-op: %+v err=%v", p, err)
		}

		if _, err := s.UpdateUsername(ctx, user, "   "); !errors.Is(err, ErrInvalidUsername) {
			t.Errorf("err = %v, want ErrInvalidUsername", err)
		}

		p, err = s.UpdateAvatar(ctx, user, "https://cdn.example.com/siti.png")
		if err != nil || p.Avatar != "https://cdn.example.com/siti.png" {
			t.Fatalf("UpdateAvatar = %+v err=%v", p, err)
		}
		if _, err := s.UpdateAvatar(ctx, user, "not a url"); !errors.Is(err, ErrInvalidAvatar) {
			t.Errorf("err = %v, want ErrInvalidAvatar", err)
		}

		p, err = s.UpdatePreferences(ctx, user, json.RawMessage(`{"theme":"dark"}`))
		if err != nil {
			t.Fatal(err)
		}
		var prefs map[string]string
		if err := json.Unmarshal(p.Preferences, &prefs); err != nil || prefs["theme"] != "dark" {
			t.Errorf("preferences = %s err=%v", p.Preferences, err)
		}
		if _, err := s.UpdatePreferences(ctx, user, json.RawMessage(`[1,2]`)); !errors.Is(err, ErrInvalidPreferences) {
			t.Errorf("err = %v, want ErrInvalidPreferences", err)
		}

		p, err = s.Profile(ctx, user)
		if err != nil || p.Username != "Siti" || p.Avatar == "" {
			t.Errorf("reloaded profile = %+v err=%v", p, err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreFavoritesAreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.AddFavorite(ctx, "u", "1")
	favs, _ := s.Favorites(ctx, "u")
	favs[0] = "changed"
	if ok, _ := s.IsFavorite(ctx, "u", "1"); !ok {
		t.Error("caller mutation leaked into store")
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(ErrInvalidUsername) {
		t.Error("ErrInvalidUsername should be a validation error")
	}
	if IsValidation(ErrSchemaMissing) {
		t.Error("ErrSchemaMissing is a store error")
	}
}
