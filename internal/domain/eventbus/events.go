package eventbus

import "time"

// Topics published by the auth core.
const (
	TopicUserRegistered = "auth.user.registered"
	TopicUserLogin      = "auth.user.login"
	TopicProfileUpdated = "auth.profile.updated"
)

// TopicReputationAdjust is published by external collaborators (review and
// reward subsystems) and consumed by the reputation service, the only writer
// of the reputation field.
const TopicReputationAdjust = "reputation.adjust"

// UserEvent describes an auth lifecycle event.
type UserEvent struct {
	UserID        string    `json:"user_id"`
	WalletAddress string    `json:"wallet_address"`
	At            time.Time `json:"at"`
}

// ReputationEvent requests a reputation change for a wallet.
type ReputationEvent struct {
	WalletAddress string `json:"wallet_address"`
	Delta         int    `json:"delta"`
	Reason        string `json:"reason"`
}
