package backend

import (
	"context"
	"fmt"

	"github.com/anisur046/accounting/internal/log"
	"github.com/anisur046/accounting/internal/storage/bolt"
	"github.com/anisur046/accounting/internal/storage/memory"
	"github.com/anisur046/accounting/internal/storage/sqlite"
)

// Factory opens stores and logs what it opened.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Open opens the store selected by cfg. The caller owns Result.Cleanup.
func (f *Factory) Open(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLite:
		repo, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend",
			log.FieldBackend, cfg.Type.String(),
			"db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case Bolt:
		store, err := bolt.Open(cfg.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bbolt store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized bbolt backend",
			log.FieldBackend, cfg.Type.String(),
			"db_path", cfg.BoltDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil

	case Memory:
		store := memory.New()
		f.logger.WarnContext(ctx, "Using in-memory backend; data is lost on restart",
			log.FieldBackend, cfg.Type.String())
		return &Result{Store: store, Cleanup: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
