package backend

import (
	"fmt"

	"github.com/anisur046/accounting/internal/config"
)

// Config holds what the factory needs to open a store.
type Config struct {
	Type         Type
	SQLiteDBPath string
	BoltDBPath   string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         t,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		BoltDBPath:   appConfig.BoltDBPath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case Bolt:
		if c.BoltDBPath == "" {
			return fmt.Errorf("bbolt database path is required for bolt backend")
		}
	case Memory:
		// nothing persisted
	}

	return nil
}
