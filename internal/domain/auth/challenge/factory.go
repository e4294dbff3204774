package challenge

import "fmt"

// Driver identifiers supported by the challenge store.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// NewStore creates a challenge store based on the provided configuration.
func NewStore(cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(cfg), nil
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported challenge store driver: %s", driver)
	}
}
