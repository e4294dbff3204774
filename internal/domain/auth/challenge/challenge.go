// Package challenge issues and tracks one-time signing challenges. A wallet
// must sign the exact message produced here; server-side tracking is what
// makes a captured signature worthless after first use.
package challenge

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"afrochain-auth-go/internal/domain/users"
)

const (
	// nonceBytes gives 128 bits of randomness, far wider than anything
	// guessable within the challenge validity window.
	nonceBytes = 16

	// DefaultTTL bounds how long a challenge stays signable.
	DefaultTTL = 5 * time.Minute
)

// Challenge binds a wallet address and timestamp to a one-time nonce.
type Challenge struct {
	WalletAddress string    `json:"wallet_address"`
	Nonce         string    `json:"nonce"`
	Message       string    `json:"message"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the challenge is past its validity window.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// BuildMessage renders the human-readable signing message for a wallet,
// nonce and issue time. The same inputs always produce the same message.
func BuildMessage(wallet, nonce string, issuedAt time.Time) string {
	return fmt.Sprintf(
		"AfroChain wants you to sign in with your wallet:\n%s\n\nNonce: %s\nIssued At: %s",
		wallet,
		nonce,
		issuedAt.UTC().Format(time.RFC3339),
	)
}

// Generator creates challenges and records them in the configured store.
type Generator struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewGenerator wires a Generator over the given store.
func NewGenerator(store Store, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	if now != nil {
		g.now = now
	}
	return g
}

// Issue creates a fresh challenge for the wallet and records it, replacing
// any previous outstanding challenge for the same wallet.
func (g *Generator) Issue(ctx context.Context, walletAddress string) (Challenge, error) {
	wallet := users.NormalizeAddress(walletAddress)

	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return Challenge{}, fmt.Errorf("generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)

	issuedAt := g.now().UTC()
	ch := Challenge{
		WalletAddress: wallet,
		Nonce:         nonce,
		Message:       BuildMessage(wallet, nonce, issuedAt),
		IssuedAt:      issuedAt,
		ExpiresAt:     issuedAt.Add(g.ttl),
	}
	if err := g.store.Put(ctx, ch); err != nil {
		return Challenge{}, fmt.Errorf("record challenge: %w", err)
	}
	return ch, nil
}
