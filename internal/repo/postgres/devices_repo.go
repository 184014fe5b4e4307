package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/davidemms/widgethub/internal/domain/device"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DevicesRepo struct {
	pool *pgxpool.Pool
}

func NewDevicesRepo(pool *pgxpool.Pool) *DevicesRepo {
	return &DevicesRepo{pool: pool}
}

func (r *DevicesRepo) Create(ctx context.Context, userID, name, typ string, apiKey *string) (device.Device, error) {
	d := device.Device{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Type:      typ,
		APIKey:    apiKey,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO devices (id, user_id, name, type, api_key, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		d.ID, d.UserID, d.Name, d.Type, d.APIKey, d.CreatedAt,
	)

	if err != nil {
		return device.Device{}, err
	}

	return d, nil
}

func (r *DevicesRepo) ListByUser(ctx context.Context, userID string) ([]device.Device, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, type, api_key, last_access, created_at
		FROM devices
		WHERE user_id = $1
		ORDER BY created_at`,
		userID,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]device.Device, 0, 4)

	for rows.Next() {
		var d device.Device

		err = rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.APIKey, &d.LastAccess, &d.CreatedAt)

		if err != nil {
			return nil, err
		}

		out = append(out, d)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *DevicesRepo) GetByID(ctx context.Context, id, userID string) (device.Device, error) {
	var d device.Device

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, type, api_key, last_access, created_at
		FROM devices
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.APIKey, &d.LastAccess, &d.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return device.Device{}, device.ErrNotFound
		}

		return device.Device{}, err
	}

	return d, nil
}

// GetByKey is the iot auth lookup: exact match on the opaque key.
func (r *DevicesRepo) GetByKey(ctx context.Context, apiKey string) (device.Device, error) {
	var d device.Device

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, type, api_key, last_access, created_at
		FROM devices
		WHERE api_key = $1`,
		apiKey,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.APIKey, &d.LastAccess, &d.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return device.Device{}, device.ErrNotFound
		}

		return device.Device{}, err
	}

	return d, nil
}

// FindByUserAndType returns the first device of the given type, used
// for the implicit per-device-type layout device.
func (r *DevicesRepo) FindByUserAndType(ctx context.Context, userID, typ string) (device.Device, error) {
	var d device.Device

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, type, api_key, last_access, created_at
		FROM devices
		WHERE user_id = $1 AND type = $2
		ORDER BY created_at
		LIMIT 1`,
		userID, typ,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.APIKey, &d.LastAccess, &d.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return device.Device{}, device.ErrNotFound
		}

		return device.Device{}, err
	}

	return d, nil
}

func (r *DevicesRepo) Rename(ctx context.Context, id, userID, name string) (device.Device, error) {
	var d device.Device

	err := r.pool.QueryRow(ctx,
		`UPDATE devices
		SET name = $3
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, type, api_key, last_access, created_at`,
		id, userID, name,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.APIKey, &d.LastAccess, &d.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return device.Device{}, device.ErrNotFound
		}

		return device.Device{}, err
	}

	return d, nil
}

// TouchAccess is best effort; device auth should not fail on it.
func (r *DevicesRepo) TouchAccess(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE devices SET last_access = NOW() WHERE id = $1`, id,
	)

	return err
}

func (r *DevicesRepo) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM devices WHERE id = $1 AND user_id = $2`, id, userID,
	)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return device.ErrNotFound
	}

	return nil
}
