package users

import (
	"fmt"

	"gorm.io/gorm"
)

// Driver identifiers supported by the user repository.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Dependencies captures external handles required by certain drivers.
type Dependencies struct {
	SQLiteDB *gorm.DB
}

// New creates a user repository for the configured driver.
func New(driver string, deps Dependencies) (Repository, error) {
	if driver == "" {
		driver = DriverSQLite
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		if deps.SQLiteDB == nil {
			return nil, fmt.Errorf("sqlite driver requires database handle")
		}
		return NewSQLite(deps.SQLiteDB)
	default:
		return nil, fmt.Errorf("unsupported user repository driver: %s", driver)
	}
}
