package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-connect/core"
)

// ConnectionRepository persists account connections in SQL through bun. Token
// material is sealed with the configured secret provider before it touches
// the database; with no provider configured the raw bytes are stored as-is.
type ConnectionRepository struct {
	db      *bun.DB
	repo    repository.Repository[*accountConnectionRecord]
	secrets core.SecretProvider
}

func (s *ConnectionRepository) AddConnection(ctx context.Context, input core.AddConnectionInput) (core.AccountConnection, error) {
	if s == nil || s.db == nil {
		return core.AccountConnection{}, fmt.Errorf("sqlstore: connection repository is not configured")
	}
	accountID := strings.TrimSpace(input.AccountID)
	providerName := strings.TrimSpace(input.ProviderName)
	if accountID == "" || providerName == "" {
		return core.AccountConnection{}, fmt.Errorf("sqlstore: account id and provider name are required")
	}
	if strings.TrimSpace(input.AccessToken.Value) == "" {
		return core.AccountConnection{}, fmt.Errorf("sqlstore: access token value is required")
	}

	sealedValue, err := s.seal(ctx, input.AccessToken.Value)
	if err != nil {
		return core.AccountConnection{}, fmt.Errorf("sqlstore: seal access token value: %w", err)
	}
	sealedSecret, err := s.seal(ctx, input.AccessToken.Secret)
	if err != nil {
		return core.AccountConnection{}, fmt.Errorf("sqlstore: seal access token secret: %w", err)
	}

	var saved *accountConnectionRecord
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()

		existing := new(accountConnectionRecord)
		findErr := tx.NewSelect().
			Model(existing).
			Where("account_id = ?", accountID).
			Where("provider_name = ?", providerName).
			Limit(1).
			Scan(ctx)
		switch {
		case findErr == nil:
			existing.AccessTokenValue = sealedValue
			existing.AccessTokenSecret = sealedSecret
			existing.ProviderAccountID = strings.TrimSpace(input.ProviderAccountID)
			existing.ProfileURL = strings.TrimSpace(input.ProfileURL)
			existing.UpdatedAt = now
			if _, updateErr := tx.NewUpdate().Model(existing).WherePK().Exec(ctx); updateErr != nil {
				return updateErr
			}
			saved = existing
			return nil
		case errors.Is(findErr, sql.ErrNoRows):
			record := &accountConnectionRecord{
				ID:                uuid.NewString(),
				AccountID:         accountID,
				ProviderName:      providerName,
				AccessTokenValue:  sealedValue,
				AccessTokenSecret: sealedSecret,
				ProviderAccountID: strings.TrimSpace(input.ProviderAccountID),
				ProfileURL:        strings.TrimSpace(input.ProfileURL),
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				return insertErr
			}
			saved = record
			return nil
		default:
			return findErr
		}
	})
	if err != nil {
		return core.AccountConnection{}, err
	}
	return saved.toDomain(input.AccessToken), nil
}

func (s *ConnectionRepository) IsConnected(ctx context.Context, accountID string, providerName string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: connection repository is not configured")
	}
	count, err := s.db.NewSelect().
		Model((*accountConnectionRecord)(nil)).
		Where("account_id = ?", strings.TrimSpace(accountID)).
		Where("provider_name = ?", strings.TrimSpace(providerName)).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ConnectionRepository) Disconnect(ctx context.Context, accountID string, providerName string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: connection repository is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*accountConnectionRecord)(nil)).
		Where("account_id = ?", strings.TrimSpace(accountID)).
		Where("provider_name = ?", strings.TrimSpace(providerName)).
		Exec(ctx)
	return err
}

func (s *ConnectionRepository) GetAccessToken(ctx context.Context, accountID string, providerName string) (core.OAuthToken, bool, error) {
	record, found, err := s.findOne(ctx, accountID, providerName)
	if err != nil || !found {
		return core.OAuthToken{}, false, err
	}
	token, err := s.openToken(ctx, record)
	if err != nil {
		return core.OAuthToken{}, false, err
	}
	return token, true, nil
}

func (s *ConnectionRepository) GetAccountConnections(ctx context.Context, accountID string, providerName string) ([]core.AccountConnection, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: connection repository is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("account_id", "=", strings.TrimSpace(accountID)),
		repository.SelectBy("provider_name", "=", strings.TrimSpace(providerName)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}

	out := make([]core.AccountConnection, 0, len(records))
	for _, record := range records {
		token, openErr := s.openToken(ctx, record)
		if openErr != nil {
			return nil, openErr
		}
		out = append(out, record.toDomain(token))
	}
	return out, nil
}

func (s *ConnectionRepository) GetProviderAccountID(ctx context.Context, accountID string, providerName string) (string, bool, error) {
	record, found, err := s.findOne(ctx, accountID, providerName)
	if err != nil || !found {
		return "", false, err
	}
	return record.ProviderAccountID, true, nil
}

func (s *ConnectionRepository) findOne(ctx context.Context, accountID string, providerName string) (*accountConnectionRecord, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("sqlstore: connection repository is not configured")
	}
	record := new(accountConnectionRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("account_id = ?", strings.TrimSpace(accountID)).
		Where("provider_name = ?", strings.TrimSpace(providerName)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (s *ConnectionRepository) seal(ctx context.Context, plaintext string) ([]byte, error) {
	if s.secrets == nil {
		return []byte(plaintext), nil
	}
	return s.secrets.Encrypt(ctx, []byte(plaintext))
}

func (s *ConnectionRepository) openToken(ctx context.Context, record *accountConnectionRecord) (core.OAuthToken, error) {
	value, err := s.open(ctx, record.AccessTokenValue)
	if err != nil {
		return core.OAuthToken{}, fmt.Errorf("sqlstore: open access token value: %w", err)
	}
	secret, err := s.open(ctx, record.AccessTokenSecret)
	if err != nil {
		return core.OAuthToken{}, fmt.Errorf("sqlstore: open access token secret: %w", err)
	}
	return core.OAuthToken{Value: value, Secret: secret}, nil
}

func (s *ConnectionRepository) open(ctx context.Context, sealed []byte) (string, error) {
	if s.secrets == nil {
		return string(sealed), nil
	}
	plaintext, err := s.secrets.Decrypt(ctx, sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
