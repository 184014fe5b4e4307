package postgres

import (
	"context"
	"errors"

	"github.com/davidemms/widgethub/internal/domain/settings"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) Get(ctx context.Context, userID string) (settings.Settings, error) {
	var s settings.Settings

	err := r.pool.QueryRow(ctx,
		`SELECT user_id, theme, layout_preference FROM settings WHERE user_id = $1`,
		userID,
	).Scan(&s.UserID, &s.Theme, &s.LayoutPreference)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.Settings{}, settings.ErrNotFound
		}

		return settings.Settings{}, err
	}

	return s, nil
}

// CreateDefaults is idempotent so registration and first read can
// both call it.
func (r *SettingsRepo) CreateDefaults(ctx context.Context, userID string) (settings.Settings, error) {
	s := settings.Defaults(userID)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO settings (user_id, theme, layout_preference)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO NOTHING`,
		s.UserID, s.Theme, s.LayoutPreference,
	)

	if err != nil {
		return settings.Settings{}, err
	}

	return r.Get(ctx, userID)
}

func (r *SettingsRepo) Update(ctx context.Context, userID string, theme, layoutPreference *string) (settings.Settings, error) {
	var s settings.Settings

	err := r.pool.QueryRow(ctx,
		`UPDATE settings
		SET theme = COALESCE($2, theme),
			layout_preference = COALESCE($3, layout_preference)
		WHERE user_id = $1
		RETURNING user_id, theme, layout_preference`,
		userID, theme, layoutPreference,
	).Scan(&s.UserID, &s.Theme, &s.LayoutPreference)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.Settings{}, settings.ErrNotFound
		}

		return settings.Settings{}, err
	}

	return s, nil
}
