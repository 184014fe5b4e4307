package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LayoutsRepo struct {
	pool *pgxpool.Pool
}

func NewLayoutsRepo(pool *pgxpool.Pool) *LayoutsRepo {
	return &LayoutsRepo{pool: pool}
}

// GetByUserAndType returns the most recently saved layout for the
// device type, or an empty document when none was ever saved.
func (r *LayoutsRepo) GetByUserAndType(ctx context.Context, userID, deviceType string) (json.RawMessage, error) {
	var data json.RawMessage

	err := r.pool.QueryRow(ctx,
		`SELECT dl.layout_data
		FROM device_layouts dl
		JOIN devices d ON dl.device_id = d.id
		WHERE d.user_id = $1 AND dl.device_type = $2
		ORDER BY dl.updated_at DESC
		LIMIT 1`,
		userID, deviceType,
	).Scan(&data)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return json.RawMessage(`[]`), nil
		}

		return nil, err
	}

	return data, nil
}

func (r *LayoutsRepo) Save(ctx context.Context, deviceID, deviceType string, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO device_layouts (device_id, device_type, layout_data, updated_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (device_id, device_type)
		DO UPDATE SET layout_data = EXCLUDED.layout_data, updated_at = NOW()`,
		deviceID, deviceType, data,
	)

	return err
}
