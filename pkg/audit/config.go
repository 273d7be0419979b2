package audit

import "fmt"

// Config controls whether and where the audit ledger is persisted.
type Config struct {
	// Enabled turns the ledger on. When false, Store is a no-op.
	Enabled bool
	// Path is the SQLite database file path.
	Path string
}

// Validate checks the configuration when the ledger is enabled.
func (c *Config) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("audit: path is required when enabled")
	}
	return nil
}
