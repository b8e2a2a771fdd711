package userstore

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	favorites map[string][]string
	profiles  map[string]Profile
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		favorites: make(map[string][]string),
		profiles:  make(map[string]Profile),
		now:       time.Now,
	}
}

func (s *MemoryStore) Favorites(ctx context.Context, user string) (ids []string, err error) {
	defer func(start time.Time) { observe("favorites", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.favorites[user]), nil
}

func (s *MemoryStore) IsFavorite(ctx context.Context, user, recipeID string) (ok bool, err error) {
	defer func(start time.Time) { observe("is_favorite", start, err) }(time.Now())
	if err := checkIDs(user, recipeID); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.favorites[user], recipeID), nil
}

func (s *MemoryStore) AddFavorite(ctx context.Context, user, recipeID string) (err error) {
	defer func(start time.Time) { observe("add_favorite", start, err) }(time.Now())
	if err := checkIDs(user, recipeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.favorites[user], recipeID) {
		s.favorites[user] = append(s.favorites[user], recipeID)
	}
	return nil
}

func (s *MemoryStore) RemoveFavorite(ctx context.Context, user, recipeID string) (err error) {
	defer func(start time.Time) { observe("remove_favorite", start, err) }(time.Now())
	if err := checkIDs(user, recipeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(user, recipeID)
	return nil
}

func (s *MemoryStore) ToggleFavorite(ctx context.Context, user, recipeID string) (on bool, err error) {
	defer func(start time.Time) { observe("toggle_favorite", start, err) }(time.Now())
	if err := checkIDs(user, recipeID); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remove(user, recipeID) {
		return false, nil
	}
	s.favorites[user] = append(s.favorites[user], recipeID)
	return true, nil
}

// remove deletes recipeID from user's favorites; the caller holds mu.
func (s *MemoryStore) remove(user, recipeID string) bool {
	favs := s.favorites[user]
	i := slices.Index(favs, recipeID)
	if i < 0 {
		return false
	}
	s.favorites[user] = slices.Delete(favs, i, i+1)
	return true
}

func (s *MemoryStore) Profile(ctx context.Context, user string) (p Profile, err error) {
	defer func(start time.Time) { observe("profile", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile(user), nil
}

func (s *MemoryStore) profile(user string) Profile {
	p, ok := s.profiles[user]
	if !ok {
		return defaultProfile()
	}
	return p
}

func (s *MemoryStore) UpdateUsername(ctx context.Context, user, username string) (p Profile, err error) {
	defer func(start time.Time) { observe("update_username", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return Profile{}, err
	}
	name, err := NormalizeUsername(username)
	if err != nil {
		return Profile{}, err
	}
	return s.update(user, func(p *Profile) bool {
		if p.Username == name {
			return false
		}
		p.Username = name
		return true
	}), nil
}

func (s *MemoryStore) UpdateAvatar(ctx context.Context, user, avatarURL string) (p Profile, err error) {
	defer func(start time.Time) { observe("update_avatar", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return Profile{}, err
	}
	avatar, err := validateAvatar(avatarURL)
	if err != nil {
		return Profile{}, err
	}
	return s.update(user, func(p *Profile) bool {
		p.Avatar = avatar
		return true
	}), nil
}

func (s *MemoryStore) UpdatePreferences(ctx context.Context, user string, prefs json.RawMessage) (p Profile, err error) {
	defer func(start time.Time) { observe("update_preferences", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return Profile{}, err
	}
	prefs, err = validatePreferences(prefs)
	if err != nil {
		return Profile{}, err
	}
	return s.update(user, func(p *Profile) bool {
		p.Preferences = slices.Clone(prefs)
		return true
	}), nil
}

// update applies fn to the stored profile. fn returns false for a no-op.
func (s *MemoryStore) update(user string, fn func(*Profile) bool) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile(user)
	if fn(&p) {
		p.UpdatedAt = s.now()
		s.profiles[user] = p
	}
	return p
}
