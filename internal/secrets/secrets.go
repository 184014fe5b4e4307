package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/davidemms/widgethub/internal/domain/secret"
	"github.com/davidemms/widgethub/internal/security"
)

// Store is the persistence surface the service needs; the postgres
// api_keys repo satisfies it.
type Store interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	ListActive(ctx context.Context, userID string) ([]secret.APIKey, error)
	GetActiveCiphertext(ctx context.Context, userID, service string) (string, error)
	DeactivateTx(ctx context.Context, tx pgx.Tx, userID, service string) error
	CreateTx(ctx context.Context, tx pgx.Tx, row secret.APIKey) error
	Deactivate(ctx context.Context, userID, service string) error
}

// Service stores provider credentials encrypted and hands the
// plaintext back only to internal callers, never over the API.
type Service struct {
	store Store
	box   *security.SecretBox
	log   *slog.Logger
}

func NewService(store Store, box *security.SecretBox, log *slog.Logger) *Service {
	return &Service{store: store, box: box, log: log}
}

// Get returns the decrypted credential, or empty when the user has no
// usable one. A missing row and an undecryptable row look the same to
// the caller: both mean "no credential", so features fall back rather
// than error out.
func (s *Service) Get(ctx context.Context, userID, service string) (string, error) {
	ciphertext, err := s.store.GetActiveCiphertext(ctx, userID, service)

	if err != nil {
		if errors.Is(err, secret.ErrNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("load credential: %w", err)
	}

	plain, err := s.box.Open(ciphertext)

	if err != nil {
		// rotated master key or corrupted row; log it, do not fail
		// the widget over it
		s.log.Warn("stored credential failed to decrypt",
			slog.String("user_id", userID),
			slog.String("service", service),
		)

		return "", nil
	}

	return plain, nil
}

// Put encrypts and stores a credential, retiring any previous active
// row for the same (user, service) in the same transaction. At most
// one active credential per pair survives a commit.
func (s *Service) Put(ctx context.Context, userID, service, apiKey string) (secret.APIKey, error) {
	ciphertext, err := s.box.Seal(apiKey)

	if err != nil {
		return secret.APIKey{}, fmt.Errorf("encrypt credential: %w", err)
	}

	tx, err := s.store.BeginTx(ctx)

	if err != nil {
		return secret.APIKey{}, fmt.Errorf("begin tx: %w", err)
	}

	defer tx.Rollback(ctx)

	if err := s.store.DeactivateTx(ctx, tx, userID, service); err != nil {
		return secret.APIKey{}, fmt.Errorf("retire previous credential: %w", err)
	}

	row := newRow(userID, service, ciphertext)

	if err := s.store.CreateTx(ctx, tx, row); err != nil {
		return secret.APIKey{}, fmt.Errorf("store credential: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return secret.APIKey{}, fmt.Errorf("commit: %w", err)
	}

	return row, nil
}

// Delete retires the active credential for a service. Deleting a
// service with no active credential is a no-op.
func (s *Service) Delete(ctx context.Context, userID, service string) error {
	return s.store.Deactivate(ctx, userID, service)
}

// List returns active credential metadata; plaintext and ciphertext
// never appear in listings.
func (s *Service) List(ctx context.Context, userID string) ([]secret.APIKey, error) {
	return s.store.ListActive(ctx, userID)
}

func newRow(userID, service, ciphertext string) secret.APIKey {
	return secret.APIKey{
		ID:         uuid.NewString(),
		UserID:     userID,
		Service:    service,
		Ciphertext: ciphertext,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
}
