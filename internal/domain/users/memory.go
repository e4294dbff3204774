package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	platformerrors "afrochain-auth-go/internal/platform/errors"
)

type memoryRepository struct {
	mutex sync.RWMutex
	items map[string]User
	now   func() time.Time
}

// NewMemory builds an in-memory user repository for tests and dev mode.
func NewMemory() Repository {
	return &memoryRepository{
		items: make(map[string]User),
		now:   time.Now,
	}
}

func (r *memoryRepository) FindByWallet(_ context.Context, address string) (User, error) {
	wallet := NormalizeAddress(address)

	r.mutex.RLock()
	user, ok := r.items[wallet]
	r.mutex.RUnlock()
	if !ok {
		return User{}, platformerrors.ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) UpsertOnLogin(_ context.Context, address string) (User, error) {
	wallet := NormalizeAddress(address)
	now := r.now().UTC()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.items[wallet]
	if !ok {
		user = User{
			ID:            uuid.NewString(),
			WalletAddress: wallet,
			IsFarmer:      false,
			Reputation:    0,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	user.LastLoginAt = now
	r.items[wallet] = user
	return user, nil
}

func (r *memoryRepository) UpdateProfile(_ context.Context, address string, patch ProfilePatch) (User, error) {
	wallet := NormalizeAddress(address)
	now := r.now().UTC()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.items[wallet]
	if !ok {
		return User{}, platformerrors.ErrNotFound
	}
	if patch.DisplayName != nil {
		user.DisplayName = *patch.DisplayName
	}
	if patch.IsFarmer != nil {
		user.IsFarmer = *patch.IsFarmer
	}
	user.UpdatedAt = now
	r.items[wallet] = user
	return user, nil
}

func (r *memoryRepository) AdjustReputation(_ context.Context, address string, delta int) (User, error) {
	wallet := NormalizeAddress(address)
	now := r.now().UTC()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.items[wallet]
	if !ok {
		return User{}, platformerrors.ErrNotFound
	}
	user.Reputation += delta
	if user.Reputation < 0 {
		user.Reputation = 0
	}
	user.UpdatedAt = now
	r.items[wallet] = user
	return user, nil
}

func (r *memoryRepository) Close(context.Context) error {
	return nil
}
