package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"afrochain-auth-go/internal/domain/auth/challenge"
	"afrochain-auth-go/internal/domain/auth/signature"
	"afrochain-auth-go/internal/domain/eventbus"
	"afrochain-auth-go/internal/domain/users"
	platformerrors "afrochain-auth-go/internal/platform/errors"
)

const (
	defaultCleanupInterval = time.Minute
	minCleanupInterval     = time.Second
)

// Logger provides the minimal logging contract required by the auth domain.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Options encapsulates the dependencies required to construct a Manager.
type Options struct {
	Users           users.Repository
	Challenges      challenge.Store
	Tokens          *TokenIssuer
	Logger          Logger
	Bus             *eventbus.Bus
	ChallengeTTL    time.Duration
	CleanupInterval time.Duration
	Now             func() time.Time
}

// Result is returned on successful authentication.
type Result struct {
	User  users.User
	Token string
}

// Manager composes challenge issuance, signature verification, the
// credential store and the session issuer into the login and profile flows.
type Manager struct {
	users      users.Repository
	challenges challenge.Store
	generator  *challenge.Generator
	tokens     *TokenIssuer
	logger     Logger
	bus        *eventbus.Bus
	now        func() time.Time

	locks *walletLocks

	cleanupInterval time.Duration
	cleanupStop     chan struct{}
	cleanupOnce     sync.Once
}

// NewManager wires a Manager using the supplied options.
func NewManager(opts Options) (*Manager, error) {
	if opts.Users == nil {
		return nil, errors.New("auth manager requires a user repository")
	}
	if opts.Challenges == nil {
		return nil, errors.New("auth manager requires a challenge store")
	}
	if opts.Tokens == nil {
		return nil, errors.New("auth manager requires a token issuer")
	}
	if opts.Logger == nil {
		return nil, errors.New("auth manager requires a logger")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cleanupInterval := opts.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	} else if cleanupInterval < minCleanupInterval {
		opts.Logger.Warn("cleanup interval too small, adjusting to %v", minCleanupInterval)
		cleanupInterval = minCleanupInterval
	}

	mgr := &Manager{
		users:           opts.Users,
		challenges:      opts.Challenges,
		generator:       challenge.NewGenerator(opts.Challenges, opts.ChallengeTTL).WithClock(now),
		tokens:          opts.Tokens,
		logger:          opts.Logger,
		bus:             opts.Bus,
		now:             now,
		locks:           newWalletLocks(),
		cleanupInterval: cleanupInterval,
		cleanupStop:     make(chan struct{}),
	}

	go mgr.runCleanup()
	return mgr, nil
}

func (m *Manager) runCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.challenges.CleanupExpired(context.Background()); err != nil {
				m.logger.Warn("challenge store cleanup failed: %v", err)
			}
		case <-m.cleanupStop:
			return
		}
	}
}

// Challenge issues a fresh signing challenge for the wallet.
func (m *Manager) Challenge(ctx context.Context, walletAddress string) (challenge.Challenge, error) {
	wallet := users.NormalizeAddress(walletAddress)
	if wallet == "" {
		return challenge.Challenge{}, platformerrors.New(
			platformerrors.KindDomain, "auth.challenge", "wallet address required",
		)
	}

	ch, err := m.generator.Issue(ctx, wallet)
	if err != nil {
		m.logger.Error("challenge issuance failed for %s: %v", wallet, err)
		return challenge.Challenge{}, fmt.Errorf(
			"%w: %v", platformerrors.ErrStoreUnavailable, err,
		)
	}
	m.logger.Debug("challenge issued for %s", wallet)
	return ch, nil
}

// Authenticate runs one login attempt: the message must match a live,
// unconsumed challenge, the signature must recover to the claimed wallet,
// and only then is the user record touched and a session minted.
func (m *Manager) Authenticate(ctx context.Context, walletAddress, signatureHex, message string) (Result, error) {
	wallet := users.NormalizeAddress(walletAddress)
	if wallet == "" || strings.TrimSpace(signatureHex) == "" || message == "" {
		return Result{}, platformerrors.ErrInvalidSignature
	}

	unlock := m.locks.lock(wallet)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	ch, live, err := m.challenges.Get(ctx, wallet)
	if err != nil {
		m.logger.Error("challenge lookup failed for %s: %v", wallet, err)
		return Result{}, fmt.Errorf("%w: %v", platformerrors.ErrStoreUnavailable, err)
	}
	if !live || ch.Message != message {
		m.logger.Debug("auth rejected for %s: no matching live challenge", wallet)
		return Result{}, platformerrors.ErrChallengeExpired
	}

	recovered, err := signature.Recover(message, signatureHex)
	if err != nil {
		m.logger.Debug("auth rejected for %s: %v", wallet, err)
		return Result{}, platformerrors.ErrInvalidSignature
	}
	if recovered != wallet {
		m.logger.Debug("auth rejected for %s: recovered %s", wallet, recovered)
		return Result{}, platformerrors.ErrInvalidSignature
	}

	// Burn the challenge before touching the credential store so a replayed
	// request cannot race the upsert.
	if _, ok, err := m.challenges.Consume(ctx, wallet); err != nil {
		return Result{}, fmt.Errorf("%w: %v", platformerrors.ErrStoreUnavailable, err)
	} else if !ok {
		return Result{}, platformerrors.ErrChallengeExpired
	}

	_, findErr := m.users.FindByWallet(ctx, wallet)
	firstLogin := errors.Is(findErr, platformerrors.ErrNotFound)

	user, err := m.users.UpsertOnLogin(ctx, wallet)
	if err != nil {
		m.logger.Error("login upsert failed for %s: %v", wallet, err)
		return Result{}, err
	}

	token, err := m.tokens.Issue(user)
	if err != nil {
		m.logger.Error("token issuance failed for %s: %v", wallet, err)
		return Result{}, err
	}

	if m.bus != nil {
		event := eventbus.UserEvent{
			UserID:        user.ID,
			WalletAddress: user.WalletAddress,
			At:            m.now().UTC(),
		}
		if firstLogin {
			m.bus.Publish(eventbus.TopicUserRegistered, event)
		} else {
			m.bus.Publish(eventbus.TopicUserLogin, event)
		}
	}

	m.logger.Info("authenticated %s (first login: %v)", wallet, firstLogin)
	return Result{User: user, Token: token}, nil
}

// VerifyToken validates a bearer token minted by this service.
func (m *Manager) VerifyToken(token string) (*Claims, error) {
	return m.tokens.Verify(token)
}

// GetProfile returns the public projection for the wallet.
func (m *Manager) GetProfile(ctx context.Context, walletAddress string) (users.User, error) {
	return m.users.FindByWallet(ctx, walletAddress)
}

// UpdateProfile applies a partial profile update for an existing wallet.
func (m *Manager) UpdateProfile(ctx context.Context, walletAddress string, patch users.ProfilePatch) (users.User, error) {
	wallet := users.NormalizeAddress(walletAddress)

	unlock := m.locks.lock(wallet)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return users.User{}, err
	}

	user, err := m.users.UpdateProfile(ctx, wallet, patch)
	if err != nil {
		return users.User{}, err
	}

	if m.bus != nil {
		m.bus.Publish(eventbus.TopicProfileUpdated, eventbus.UserEvent{
			UserID:        user.ID,
			WalletAddress: user.WalletAddress,
			At:            m.now().UTC(),
		})
	}
	return user, nil
}

// Close releases underlying resources.
func (m *Manager) Close() error {
	m.cleanupOnce.Do(func() {
		close(m.cleanupStop)
	})

	var err error
	if closeErr := m.challenges.Close(context.Background()); closeErr != nil {
		err = closeErr
		m.logger.Error("failed closing challenge store: %v", closeErr)
	}
	if closeErr := m.users.Close(context.Background()); closeErr != nil {
		err = closeErr
		m.logger.Error("failed closing user repository: %v", closeErr)
	}
	return err
}
