package storage

import (
	"time"

	"gorm.io/datatypes"
)

// UserRecord is the durable representation of a marketplace user, keyed by
// the normalized wallet address. Records are never deleted by the auth core.
type UserRecord struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	WalletAddress string         `gorm:"uniqueIndex;not null" json:"wallet_address"`
	DisplayName   string         `json:"display_name"`
	IsFarmer      bool           `gorm:"not null;default:false" json:"is_farmer"`
	Reputation    int            `gorm:"not null;default:0" json:"reputation"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	LastLoginAt   time.Time      `gorm:"not null" json:"last_login_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (UserRecord) TableName() string {
	return "users"
}
