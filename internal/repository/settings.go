package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
)

// Well-known setting keys.
const (
	SettingUpstreamToken = "upstream_token"
)

// SettingsRepository stores key-value settings. Secrets are encrypted with
// a fernet key before they touch the database.
type SettingsRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewSettingsRepository creates a settings repository. An empty encoded key
// generates an ephemeral one: secrets written with it are unreadable after
// a restart, which is logged as a warning.
func NewSettingsRepository(db *sql.DB, encodedKey string, log zerolog.Logger) (*SettingsRepository, error) {
	var key *fernet.Key
	if encodedKey == "" {
		key = new(fernet.Key)
		if err := key.Generate(); err != nil {
			return nil, fmt.Errorf("generating settings key: %w", err)
		}
		log.Warn().Msg("no encryption key configured, stored secrets will not survive a restart")
	} else {
		keys, err := fernet.DecodeKeys(encodedKey)
		if err != nil {
			return nil, fmt.Errorf("decoding settings encryption key: %w", err)
		}
		key = keys[0]
	}
	return &SettingsRepository{db: db, key: key}, nil
}

// Set stores a plain setting value.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	return r.upsert(ctx, key, value, false)
}

// Get returns a plain setting value.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	value, encrypted, err := r.fetch(ctx, key)
	if err != nil {
		return "", err
	}
	if encrypted {
		return "", fmt.Errorf("%w: %q is a secret", apperrors.ErrFailedToLoadSetting, key)
	}
	return value, nil
}

// SetSecret encrypts and stores a secret setting value.
func (r *SettingsRepository) SetSecret(ctx context.Context, key, value string) error {
	token, err := fernet.EncryptAndSign([]byte(value), r.key)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToStoreSetting, err)
	}
	return r.upsert(ctx, key, string(token), true)
}

// Secret decrypts and returns a secret setting value.
func (r *SettingsRepository) Secret(ctx context.Context, key string) (string, error) {
	value, encrypted, err := r.fetch(ctx, key)
	if err != nil {
		return "", err
	}
	if !encrypted {
		return "", fmt.Errorf("%w: %q is not a secret", apperrors.ErrFailedToLoadSetting, key)
	}
	plain := fernet.VerifyAndDecrypt([]byte(value), 0, []*fernet.Key{r.key})
	if plain == nil {
		return "", fmt.Errorf("%w: %q does not verify against the current key", apperrors.ErrFailedToLoadSetting, key)
	}
	return string(plain), nil
}

// Delete removes a setting; missing keys are a no-op.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToStoreSetting, err)
	}
	return nil
}

func (r *SettingsRepository) upsert(ctx context.Context, key, value string, encrypted bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, encrypted, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			encrypted = excluded.encrypted,
			updated_at = excluded.updated_at
	`, key, value, encrypted)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToStoreSetting, err)
	}
	return nil
}

func (r *SettingsRepository) fetch(ctx context.Context, key string) (string, bool, error) {
	var (
		value     string
		encrypted bool
	)
	err := r.db.QueryRowContext(ctx, `SELECT value, encrypted FROM settings WHERE key = ?`, key).
		Scan(&value, &encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("%w: %q", apperrors.ErrSettingNotFound, key)
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", apperrors.ErrFailedToLoadSetting, err)
	}
	return value, encrypted, nil
}
