package config

import (
	"time"

	"grocery_sheets/internal/retry"
)

// ResilienceConfig bounds every remote call the application makes.
// Sheet writes never retry: a lost append response would otherwise create
// duplicate rows.
type ResilienceConfig struct {
	SheetRead  retry.Config
	SheetWrite retry.Config
	Notify     retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	SheetRead: retry.Config{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    15 * time.Second,
	},
	SheetWrite: retry.Config{
		MaxRetries: 0,
		Timeout:    15 * time.Second,
	},
	Notify: retry.Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    10 * time.Second,
	},
}

// WithSheetTimeout returns a copy of c with both sheet timeouts set to d.
func (c ResilienceConfig) WithSheetTimeout(d time.Duration) ResilienceConfig {
	c.SheetRead.Timeout = d
	c.SheetWrite.Timeout = d
	return c
}

// WithReadRetries returns a copy of c allowing n retries of idempotent sheet reads.
func (c ResilienceConfig) WithReadRetries(n int) ResilienceConfig {
	if n < 0 {
		n = 0
	}
	c.SheetRead.MaxRetries = n
	return c
}
