package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/davidemms/widgethub/internal/domain/secret"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type APIKeysRepo struct {
	pool *pgxpool.Pool
}

func NewAPIKeysRepo(pool *pgxpool.Pool) *APIKeysRepo {
	return &APIKeysRepo{pool: pool}
}

func (r *APIKeysRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

// ListActive returns metadata only; ciphertext stays out of listings.
func (r *APIKeysRepo) ListActive(ctx context.Context, userID string) ([]secret.APIKey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, service, is_active, created_at
		FROM api_keys
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY created_at`,
		userID,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]secret.APIKey, 0, 4)

	for rows.Next() {
		var k secret.APIKey

		err = rows.Scan(&k.ID, &k.UserID, &k.Service, &k.Active, &k.CreatedAt)

		if err != nil {
			return nil, err
		}

		out = append(out, k)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *APIKeysRepo) GetActiveCiphertext(ctx context.Context, userID, service string) (string, error) {
	var ciphertext string

	err := r.pool.QueryRow(ctx,
		`SELECT api_key
		FROM api_keys
		WHERE user_id = $1 AND service = $2 AND is_active = TRUE`,
		userID, service,
	).Scan(&ciphertext)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", secret.ErrNotFound
		}

		return "", err
	}

	return ciphertext, nil
}

// DeactivateTx flips the active flag inside the caller's tx so a
// replacement insert commits atomically with it.
func (r *APIKeysRepo) DeactivateTx(ctx context.Context, tx pgx.Tx, userID, service string) error {
	_, err := tx.Exec(ctx,
		`UPDATE api_keys
		SET is_active = FALSE
		WHERE user_id = $1 AND service = $2 AND is_active = TRUE`,
		userID, service,
	)

	return err
}

func (r *APIKeysRepo) CreateTx(ctx context.Context, tx pgx.Tx, row secret.APIKey) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, service, api_key, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		row.ID, row.UserID, row.Service, row.Ciphertext, row.Active, row.CreatedAt,
	)

	return err
}

// Deactivate is the standalone logical delete. Rows are never
// removed; history of issuance stays queryable.
func (r *APIKeysRepo) Deactivate(ctx context.Context, userID, service string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE api_keys
		SET is_active = FALSE
		WHERE user_id = $1 AND service = $2 AND is_active = TRUE`,
		userID, service,
	)

	return err
}

// NewAPIKeyRow builds the row for a fresh active credential.
func NewAPIKeyRow(id, userID, service, ciphertext string) secret.APIKey {
	return secret.APIKey{
		ID:         id,
		UserID:     userID,
		Service:    service,
		Ciphertext: ciphertext,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
}
