package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/db"
)

// Open returns the gateway selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Gateway, error) {
	switch cfg.Driver {
	case "file":
		return NewFile(cfg.Path)
	case "sqlite", "postgres":
		return OpenStore(ctx, cfg)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// OpenStore returns a writable SQL store. The file driver is read-only and
// is rejected.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	case "file":
		return nil, eris.New("store: the file driver is read-only")
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}
