package userstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_favorites (
    id         BIGSERIAL PRIMARY KEY,
    user_id    TEXT NOT NULL,
    recipe_id  TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, recipe_id)
);
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id     TEXT PRIMARY KEY,
    username    TEXT NOT NULL,
    avatar      TEXT NOT NULL DEFAULT '',
    preferences JSONB,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// ErrSchemaMissing is returned when the tables have not been created.
var ErrSchemaMissing = errors.New("userstore: schema missing, run EnsureSchema")

// PostgresStore persists favorites and profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping user store: %w", err)
	}
	return NewPostgresStore(db), nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure user store schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) Favorites(ctx context.Context, user string) (ids []string, err error) {
	defer func(start time.Time) { observe("favorites", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT recipe_id FROM user_favorites WHERE user_id = $1 ORDER BY id`, user)
	if err != nil {
		return nil, wrap("list favorites", err)
	}
	defer rows.Close()
	ids = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan favorite", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list favorites", err)
	}
	return ids, nil
}

func (s *PostgresStore) IsFavorite(ctx context.Context, user, recipeID string) (ok bool, err error) {
	defer func(start time.Time) { observe("is_favorite", start, err) }(time.Now())
	if err := checkIDs(user, recipeID); err != nil {
		return false, err
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_favorites WHERE user_id = $1 AND recipe_id = $2)`,
		user, recipeID).Scan(&ok)
	if err != nil {
		return false, wrap("check favorite", err)
	}
	return ok, nil
}

func (s *PostgresStore) AddFavorite(ctx context.Context, user, recipeID string) (err error) {
	defer func(start time.Time) { observe("add_favorite", start, err) }(time.Now())
	if err := checkIDs(user, recipeID); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_favorites (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		user, recipeID)
	return wrap("add favorite", err)
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, user, recipeID string) (err error) {
	defer func(start time.Time) { observe("remove_favorite", start, err) }(time.Now())
	if err := checkIDs(user, recipeID); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = $1 AND recipe_id = $2`, user, recipeID)
	return wrap("remove favorite", err)
}

func (s *PostgresStore) ToggleFavorite(ctx context.Context, user, recipeID string) (on bool, err error) {
	defer func(start time.Time) { observe("toggle_favorite", start, err) }(time.Now())
	if err := checkIDs(user, recipeID); err != nil {
		return false, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, wrap("toggle favorite", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = $1 AND recipe_id = $2`, user, recipeID)
	if err != nil {
		return false, wrap("toggle favorite", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_favorites (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			user, recipeID); err != nil {
			return false, wrap("toggle favorite", err)
		}
		on = true
	}
	if err := tx.Commit(); err != nil {
		return false, wrap("toggle favorite", err)
	}
	return on, nil
}

func (s *PostgresStore) Profile(ctx context.Context, user string) (p Profile, err error) {
	defer func(start time.Time) { observe("profile", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return Profile{}, err
	}
	return s.profile(ctx, s.db, user)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) profile(ctx context.Context, q queryer, user string) (Profile, error) {
	var (
		p     Profile
		prefs pqtype.NullRawMessage
	)
	err := q.QueryRowContext(ctx,
		`SELECT username, avatar, preferences, updated_at FROM user_profiles WHERE user_id = $1`,
		user).Scan(&p.Username, &p.Avatar, &prefs, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultProfile(), nil
	}
	if err != nil {
		return Profile{}, wrap("load profile", err)
	}
	if prefs.Valid {
		p.Preferences = prefs.RawMessage
	}
	return p, nil
}

func (s *PostgresStore) UpdateUsername(ctx context.Context, user, username string) (p Profile, err error) {
	defer func(start time.Time) { observe("update_username", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return Profile{}, err
	}
	name, err := NormalizeUsername(username)
	if err != nil {
		return Profile{}, err
	}
	return s.update(ctx, user, func(p *Profile) bool {
		if p.Username == name {
			return false
		}
		p.Username = name
		return true
	})
}

func (s *PostgresStore) UpdateAvatar(ctx context.Context, user, avatarURL string) (p Profile, err error) {
	defer func(start time.Time) { observe("update_avatar", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return Profile{}, err
	}
	avatar, err := validateAvatar(avatarURL)
	if err != nil {
		return Profile{}, err
	}
	return s.update(ctx, user, func(p *Profile) bool {
		p.Avatar = avatar
		return true
	})
}

func (s *PostgresStore) UpdatePreferences(ctx context.Context, user string, prefs json.RawMessage) (p Profile, err error) {
	defer func(start time.Time) { observe("update_preferences", start, err) }(time.Now())
	if err := checkIDs(user); err != nil {
		return Profile{}, err
	}
	prefs, err = validatePreferences(prefs)
	if err != nil {
		return Profile{}, err
	}
	return s.update(ctx, user, func(p *Profile) bool {
		p.Preferences = prefs
		return true
	})
}

// update reads the profile under a row lock, applies fn and upserts the
// result. fn returns false for a no-op.
func (s *PostgresStore) update(ctx context.Context, user string, fn func(*Profile) bool) (Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, wrap("update profile", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, username) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		user, DefaultUsername); err != nil {
		return Profile{}, wrap("update profile", err)
	}
	var (
		p     Profile
		prefs pqtype.NullRawMessage
	)
	err = tx.QueryRowContext(ctx,
		`SELECT username, avatar, preferences, updated_at FROM user_profiles WHERE user_id = $1 FOR UPDATE`,
		user).Scan(&p.Username, &p.Avatar, &prefs, &p.UpdatedAt)
	if err != nil {
		return Profile{}, wrap("update profile", err)
	}
	if prefs.Valid {
		p.Preferences = prefs.RawMessage
	}
	if !fn(&p) {
		return p, wrap("update profile", tx.Commit())
	}

	prefs = pqtype.NullRawMessage{RawMessage: p.Preferences, Valid: len(p.Preferences) > 0}
	err = tx.QueryRowContext(ctx,
		`UPDATE user_profiles SET username = $2, avatar = $3, preferences = $4, updated_at = now()
		 WHERE user_id = $1 RETURNING updated_at`,
		user, p.Username, p.Avatar, prefs).Scan(&p.UpdatedAt)
	if err != nil {
		return Profile{}, wrap("update profile", err)
	}
	if err := tx.Commit(); err != nil {
		return Profile{}, wrap("update profile", err)
	}
	return p, nil
}

// wrap annotates err with op and maps an undefined table to ErrSchemaMissing.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
		return fmt.Errorf("%s: %w", op, ErrSchemaMissing)
	}
	return fmt.Errorf("%s: %w", op, err)
}
