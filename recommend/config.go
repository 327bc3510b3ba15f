package recommend

import "fmt"

// DefaultLimit is the number of recommendations returned per request.
const DefaultLimit = 5

type Config struct {
	// Limit caps the ranked list. Zero means DefaultLimit.
	Limit int
}

func DefaultConfig() Config {
	return Config{Limit: DefaultLimit}
}

func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", c.Limit)
	}
	return nil
}
