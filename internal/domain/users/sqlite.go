package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	platformerrors "afrochain-auth-go/internal/platform/errors"
	"afrochain-auth-go/internal/platform/storage"
)

type sqliteRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLite builds a SQLite-backed user repository.
func NewSQLite(db *gorm.DB) (Repository, error) {
	if db == nil {
		return nil, platformerrors.New(
			platformerrors.KindStorage,
			"users.new",
			"sqlite repository requires database handle",
		)
	}
	return &sqliteRepository{
		db:  db,
		now: time.Now,
	}, nil
}

func (r *sqliteRepository) FindByWallet(ctx context.Context, address string) (User, error) {
	record, err := r.fetch(ctx, r.db, NormalizeAddress(address))
	if err != nil {
		return User{}, err
	}
	return toUser(record), nil
}

func (r *sqliteRepository) UpsertOnLogin(ctx context.Context, address string) (User, error) {
	wallet := NormalizeAddress(address)
	now := r.now().UTC()

	var result storage.UserRecord
	upsert := func(tx *gorm.DB) error {
		record, err := r.fetch(ctx, tx, wallet)
		if err == nil {
			updates := map[string]any{"last_login_at": now}
			if err := tx.WithContext(ctx).Model(&record).Updates(updates).Error; err != nil {
				return platformerrors.Wrap(
					platformerrors.KindStorage, "users.upsert", "stamp last login", err,
				)
			}
			record.LastLoginAt = now
			result = record
			return nil
		}
		if !errors.Is(err, platformerrors.ErrNotFound) {
			return err
		}

		record = storage.UserRecord{
			ID:            uuid.NewString(),
			WalletAddress: wallet,
			IsFarmer:      false,
			Reputation:    0,
			CreatedAt:     now,
			LastLoginAt:   now,
			UpdatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
		result = record
		return nil
	}

	err := r.db.Transaction(upsert)
	if err != nil && isUniqueViolation(err) {
		// Lost the creation race to a concurrent login; the record exists now,
		// so retry as a plain last-login update.
		err = r.db.Transaction(upsert)
	}
	if err != nil {
		if errors.Is(err, platformerrors.ErrNotFound) ||
			platformerrors.IsKind(err, platformerrors.KindStorage) {
			return User{}, err
		}
		return User{}, platformerrors.Wrap(
			platformerrors.KindStorage, "users.upsert", "upsert on login", err,
		)
	}
	return toUser(result), nil
}

func (r *sqliteRepository) UpdateProfile(ctx context.Context, address string, patch ProfilePatch) (User, error) {
	wallet := NormalizeAddress(address)
	now := r.now().UTC()

	var result storage.UserRecord
	err := r.db.Transaction(func(tx *gorm.DB) error {
		record, err := r.fetch(ctx, tx, wallet)
		if err != nil {
			return err
		}

		updates := map[string]any{"updated_at": now}
		if patch.DisplayName != nil {
			updates["display_name"] = *patch.DisplayName
			record.DisplayName = *patch.DisplayName
		}
		if patch.IsFarmer != nil {
			updates["is_farmer"] = *patch.IsFarmer
			record.IsFarmer = *patch.IsFarmer
		}
		if err := tx.WithContext(ctx).Model(&storage.UserRecord{}).
			Where("wallet_address = ?", wallet).
			Updates(updates).Error; err != nil {
			return platformerrors.Wrap(
				platformerrors.KindStorage, "users.update_profile", "apply patch", err,
			)
		}
		record.UpdatedAt = now
		result = record
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return toUser(result), nil
}

func (r *sqliteRepository) AdjustReputation(ctx context.Context, address string, delta int) (User, error) {
	wallet := NormalizeAddress(address)
	now := r.now().UTC()

	var result storage.UserRecord
	err := r.db.Transaction(func(tx *gorm.DB) error {
		record, err := r.fetch(ctx, tx, wallet)
		if err != nil {
			return err
		}

		reputation := record.Reputation + delta
		if reputation < 0 {
			reputation = 0
		}
		updates := map[string]any{"reputation": reputation, "updated_at": now}
		if err := tx.WithContext(ctx).Model(&storage.UserRecord{}).
			Where("wallet_address = ?", wallet).
			Updates(updates).Error; err != nil {
			return platformerrors.Wrap(
				platformerrors.KindStorage, "users.adjust_reputation", "apply delta", err,
			)
		}
		record.Reputation = reputation
		record.UpdatedAt = now
		result = record
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return toUser(result), nil
}

func (r *sqliteRepository) Close(context.Context) error {
	return nil
}

func (r *sqliteRepository) fetch(ctx context.Context, tx *gorm.DB, wallet string) (storage.UserRecord, error) {
	var record storage.UserRecord
	err := tx.WithContext(ctx).Where("wallet_address = ?", wallet).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return storage.UserRecord{}, platformerrors.ErrNotFound
		}
		return storage.UserRecord{}, platformerrors.Wrap(
			platformerrors.KindStorage, "users.fetch", "load user record", err,
		)
	}
	return record, nil
}

func toUser(record storage.UserRecord) User {
	return User{
		ID:            record.ID,
		WalletAddress: record.WalletAddress,
		DisplayName:   record.DisplayName,
		IsFarmer:      record.IsFarmer,
		Reputation:    record.Reputation,
		CreatedAt:     record.CreatedAt,
		LastLoginAt:   record.LastLoginAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
