// Package reputation is the sole writer of the reputation field. Adjustments
// arrive as events from external collaborators (review and reward
// subsystems); the auth flows never touch reputation directly.
package reputation

import (
	"context"
	"errors"

	"afrochain-auth-go/internal/domain/eventbus"
	"afrochain-auth-go/internal/domain/users"
	platformerrors "afrochain-auth-go/internal/platform/errors"
)

// Logger matches the minimal contract used across the domain layers.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Service applies reputation adjustments published on the event bus.
type Service struct {
	users  users.Repository
	bus    *eventbus.Bus
	logger Logger
}

// NewService wires a reputation service over the repository capability.
func NewService(repo users.Repository, bus *eventbus.Bus, logger Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("reputation service requires a user repository")
	}
	if bus == nil {
		return nil, errors.New("reputation service requires an event bus")
	}
	if logger == nil {
		return nil, errors.New("reputation service requires a logger")
	}
	return &Service{
		users:  repo,
		bus:    bus,
		logger: logger,
	}, nil
}

// Start subscribes to adjustment events.
func (s *Service) Start() error {
	return s.bus.Subscribe(eventbus.TopicReputationAdjust, s.handleAdjust)
}

// Stop removes the subscription.
func (s *Service) Stop() {
	_ = s.bus.Unsubscribe(eventbus.TopicReputationAdjust, s.handleAdjust)
}

func (s *Service) handleAdjust(ev eventbus.ReputationEvent) {
	if ev.Delta == 0 {
		return
	}

	user, err := s.users.AdjustReputation(context.Background(), ev.WalletAddress, ev.Delta)
	if err != nil {
		if errors.Is(err, platformerrors.ErrNotFound) {
			s.logger.Warn("reputation event for unknown wallet %s (%s)", ev.WalletAddress, ev.Reason)
			return
		}
		s.logger.Error("reputation adjustment failed for %s: %v", ev.WalletAddress, err)
		return
	}
	s.logger.Info(
		"reputation for %s now %d (%+d, %s)",
		user.WalletAddress, user.Reputation, ev.Delta, ev.Reason,
	)
}
