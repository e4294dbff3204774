package users

import (
	"context"
	"strings"
	"time"
)

// User is the public projection of a marketplace account. Every field is safe
// to return to clients.
type User struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	DisplayName   string    `json:"displayName,omitempty"`
	IsFarmer      bool      `json:"isFarmer"`
	Reputation    int       `json:"reputation"`
	CreatedAt     time.Time `json:"createdAt"`
	LastLoginAt   time.Time `json:"lastLoginAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProfilePatch carries a partial profile update. Nil fields are left
// untouched. Wallet address and id are immutable and have no patch fields.
type ProfilePatch struct {
	DisplayName *string `json:"displayName,omitempty"`
	IsFarmer    *bool   `json:"isFarmer,omitempty"`
}

// Repository owns UserRecord lifetime: exactly one record per normalized
// wallet address, records never deleted. Every mutation is atomic and
// visible to the next read.
type Repository interface {
	// FindByWallet returns the user for the normalized address, or
	// errors.ErrNotFound.
	FindByWallet(ctx context.Context, address string) (User, error)

	// UpsertOnLogin creates a record with default role and reputation when the
	// wallet is unknown, otherwise stamps lastLoginAt. Concurrent calls for
	// the same new wallet produce exactly one record.
	UpsertOnLogin(ctx context.Context, address string) (User, error)

	// UpdateProfile applies the patch and re-stamps updatedAt. Returns
	// errors.ErrNotFound for unknown wallets.
	UpdateProfile(ctx context.Context, address string, patch ProfilePatch) (User, error)

	// AdjustReputation is the capability handed to external collaborators
	// (review and reward subsystems). The auth flows never call it.
	// Reputation never drops below zero.
	AdjustReputation(ctx context.Context, address string, delta int) (User, error)

	Close(ctx context.Context) error
}

// NormalizeAddress case-folds a wallet address to its canonical stored form.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
