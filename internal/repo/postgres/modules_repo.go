package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/davidemms/widgethub/internal/domain/module"
	"github.com/davidemms/widgethub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ModulesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewModulesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ModulesRepo {
	return &ModulesRepo{pool: pool, prom: prom}
}

func (r *ModulesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ModulesRepo) Create(ctx context.Context, userID string, typ module.Type, config json.RawMessage) (module.Module, error) {
	now := time.Now().UTC()

	if len(config) == 0 {
		config = json.RawMessage(`{}`)
	}

	m := module.Module{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.observe("modules.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO modules (id, user_id, type, config, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			m.ID, m.UserID, m.Type, m.Config, m.CreatedAt, m.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return module.Module{}, err
	}

	return m, nil
}

func (r *ModulesRepo) ListByUser(ctx context.Context, userID string) ([]module.Module, error) {
	var out []module.Module

	err := r.observe("modules.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, user_id, type, config, created_at, updated_at
			FROM modules
			WHERE user_id = $1
			ORDER BY created_at`,
			userID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]module.Module, 0, 8)

		for rows.Next() {
			var m module.Module

			err = rows.Scan(&m.ID, &m.UserID, &m.Type, &m.Config, &m.CreatedAt, &m.UpdatedAt)

			if err != nil {
				return err
			}

			out = append(out, m)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// GetByID is owner-scoped: another user's module id behaves exactly
// like a missing module.
func (r *ModulesRepo) GetByID(ctx context.Context, id, userID string) (module.Module, error) {
	var m module.Module

	err := r.observe("modules.get", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, user_id, type, config, created_at, updated_at
			FROM modules
			WHERE id = $1 AND user_id = $2`,
			id, userID,
		).Scan(&m.ID, &m.UserID, &m.Type, &m.Config, &m.CreatedAt, &m.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return module.Module{}, module.ErrNotFound
		}

		return module.Module{}, err
	}

	return m, nil
}

func (r *ModulesRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int

	err := r.observe("modules.count", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM modules WHERE user_id = $1`, userID,
		).Scan(&count)
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}

// UpdateConfig replaces the whole config document. Deliberately
// last-writer-wins; item-level mutations go through the locked tx
// path below instead.
func (r *ModulesRepo) UpdateConfig(ctx context.Context, id, userID string, config json.RawMessage) (module.Module, error) {
	var m module.Module

	err := r.observe("modules.update_config", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE modules
			SET config = $3, updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING id, user_id, type, config, created_at, updated_at`,
			id, userID, config,
		).Scan(&m.ID, &m.UserID, &m.Type, &m.Config, &m.CreatedAt, &m.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return module.Module{}, module.ErrNotFound
		}

		return module.Module{}, err
	}

	return m, nil
}

func (r *ModulesRepo) Delete(ctx context.Context, id, userID string) error {
	return r.observe("modules.delete", func() error {
		tag, err := r.pool.Exec(ctx,
			`DELETE FROM modules WHERE id = $1 AND user_id = $2`, id, userID,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return module.ErrNotFound
		}

		return nil
	})
}

func (r *ModulesRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

// GetForUpdate locks the module row so concurrent item mutations on
// the same config blob cannot lose writes.
func (r *ModulesRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id, userID string) (module.Module, error) {
	var m module.Module

	err := tx.QueryRow(ctx,
		`SELECT id, user_id, type, config, created_at, updated_at
		FROM modules
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`,
		id, userID,
	).Scan(&m.ID, &m.UserID, &m.Type, &m.Config, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return module.Module{}, module.ErrNotFound
		}

		return module.Module{}, err
	}

	return m, nil
}

func (r *ModulesRepo) UpdateConfigTx(ctx context.Context, tx pgx.Tx, id string, config json.RawMessage) error {
	_, err := tx.Exec(ctx,
		`UPDATE modules SET config = $2, updated_at = NOW() WHERE id = $1`,
		id, config,
	)

	return err
}
