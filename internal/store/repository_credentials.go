package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/models"
)

type credentialRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewCredentialRepository(db *DB, logger *logger.Logger) CredentialRepository {
	return &credentialRepository{
		db:     db,
		logger: logger,
	}
}

// SaveCredentials implements [CredentialRepository]. All three entries are
// written inside one transaction so a crash can never leave a token
// without its peer.
func (c *credentialRepository) SaveCredentials(ctx context.Context, creds models.Credentials) error {
	userJSON, err := json.Marshal(creds.User)
	if err != nil {
		return fmt.Errorf("failed to encode cached user: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		c.logger.Err(err).
			Str("func", "credentialRepository.SaveCredentials").
			Msg("failed to begin credentials transaction")
		return fmt.Errorf("failed to begin credentials transaction: %w", err)
	}
	defer tx.Rollback()

	entries := []struct {
		key   string
		value string
	}{
		{credKeyAccessToken, creds.AccessToken},
		{credKeyRefreshToken, creds.RefreshToken},
		{credKeyUser, string(userJSON)},
	}
	for _, entry := range entries {
		if _, err = tx.ExecContext(ctx, upsertCredential, entry.key, entry.value); err != nil {
			c.logger.Err(err).
				Str("func", "credentialRepository.SaveCredentials").
				Str("key", entry.key).
				Msg("failed to upsert credential entry")
			return fmt.Errorf("failed to save credential entry %q: %w", entry.key, err)
		}
	}

	return tx.Commit()
}

// LoadCredentials implements [CredentialRepository]. A missing access
// token entry means no session was persisted; a missing user entry is
// tolerated and yields a zero profile.
func (c *credentialRepository) LoadCredentials(ctx context.Context) (models.Credentials, error) {
	access, err := c.getValue(ctx, credKeyAccessToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Credentials{}, ErrCredentialsNotFound
		}
		return models.Credentials{}, fmt.Errorf("failed to load access token: %w", err)
	}

	refresh, err := c.getValue(ctx, credKeyRefreshToken)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Credentials{}, fmt.Errorf("failed to load refresh token: %w", err)
	}

	creds := models.Credentials{AccessToken: access, RefreshToken: refresh}

	userJSON, err := c.getValue(ctx, credKeyUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return creds, nil
		}
		return models.Credentials{}, fmt.Errorf("failed to load cached user: %w", err)
	}
	if err = json.Unmarshal([]byte(userJSON), &creds.User); err != nil {
		return models.Credentials{}, fmt.Errorf("failed to decode cached user: %w", err)
	}

	return creds, nil
}

// ClearCredentials implements [CredentialRepository]. All three entries
// disappear in one statement, so no concurrent reader ever observes a
// partial bundle.
func (c *credentialRepository) ClearCredentials(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, deleteAllCredentials,
		credKeyAccessToken, credKeyRefreshToken, credKeyUser)
	if err != nil {
		c.logger.Err(err).
			Str("func", "credentialRepository.ClearCredentials").
			Msg("failed to clear credentials")
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	return nil
}

func (c *credentialRepository) getValue(ctx context.Context, key string) (string, error) {
	var value string
	err := c.db.QueryRowContext(ctx, getCredential, key).Scan(&value)
	return value, err
}
