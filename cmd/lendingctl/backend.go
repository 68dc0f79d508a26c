package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memoryrepo"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresrepo"
)

const (
	backendPGX    = "pgx"
	backendSQL    = "sql"
	backendSQLX   = "sqlx"
	backendMemory = "memory"

	isolationSerializable   = "serializable"
	isolationRepeatableRead = "repeatable-read"
)

// backend is an opened repository together with its lifecycle hooks.
type backend struct {
	repo       lending.Repository
	initSchema func(ctx context.Context) error
	save       func() error
	close      func()
}

func openBackend(ctx context.Context, cfg Config, obs *observability) (*backend, error) {
	switch cfg.Backend {
	case backendMemory:
		return openMemoryBackend(cfg.StateFile, obs)
	case backendPGX, backendSQL, backendSQLX:
		return openPostgresBackend(ctx, cfg, obs)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", errUsage, cfg.Backend)
	}
}

func openPostgresBackend(ctx context.Context, cfg Config, obs *observability) (*backend, error) {
	options, err := postgresOptions(cfg.Isolation, obs)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case backendSQL:
		return openSQLBackend(ctx, cfg.DSN, options)
	case backendSQLX:
		return openSQLXBackend(ctx, cfg.DSN, options)
	default:
		return openPGXBackend(ctx, cfg.DSN, options)
	}
}

func openPGXBackend(ctx context.Context, dsn string, options []postgresrepo.Option) (*backend, error) {
	pool, err := config.NewPGXPool(ctx, dsn)
	if err != nil {
		return nil, err
	}

	repo, err := postgresrepo.NewRepositoryFromPGXPool(pool, options...)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &backend{
		repo: repo,
		initSchema: func(ctx context.Context) error {
			_, err := pool.Exec(ctx, postgresrepo.SchemaDDL)
			return err
		},
		save:  func() error { return nil },
		close: pool.Close,
	}, nil
}

func openSQLBackend(ctx context.Context, dsn string, options []postgresrepo.Option) (*backend, error) {
	db, err := config.NewSQLDB(ctx, dsn)
	if err != nil {
		return nil, err
	}

	repo, err := postgresrepo.NewRepositoryFromSQLDB(db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &backend{
		repo: repo,
		initSchema: func(ctx context.Context) error {
			_, err := db.ExecContext(ctx, postgresrepo.SchemaDDL)
			return err
		},
		save:  func() error { return nil },
		close: func() { _ = db.Close() },
	}, nil
}

func openSQLXBackend(ctx context.Context, dsn string, options []postgresrepo.Option) (*backend, error) {
	db, err := config.NewSQLXDB(ctx, dsn)
	if err != nil {
		return nil, err
	}

	repo, err := postgresrepo.NewRepositoryFromSQLX(db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &backend{
		repo: repo,
		initSchema: func(ctx context.Context) error {
			_, err := db.ExecContext(ctx, postgresrepo.SchemaDDL)
			return err
		},
		save:  func() error { return nil },
		close: func() { _ = db.Close() },
	}, nil
}

func postgresOptions(isolation string, obs *observability) ([]postgresrepo.Option, error) {
	options := []postgresrepo.Option{postgresrepo.WithContextualLogger(obs.logger)}

	switch isolation {
	case isolationSerializable:
		options = append(options, postgresrepo.WithIsolationLevel(postgresrepo.IsolationSerializable))
	case isolationRepeatableRead:
		options = append(options, postgresrepo.WithIsolationLevel(postgresrepo.IsolationRepeatableRead))
	default:
		return nil, fmt.Errorf("%w: unknown isolation level %q", errUsage, isolation)
	}

	if obs.metrics != nil {
		options = append(options, postgresrepo.WithMetrics(obs.metrics))
	}

	if obs.tracing != nil {
		options = append(options, postgresrepo.WithTracing(obs.tracing))
	}

	return options, nil
}

func openMemoryBackend(stateFile string, obs *observability) (*backend, error) {
	repo, err := memoryrepo.NewRepository(memoryrepo.WithLogger(obs.logger.Slog()))
	if err != nil {
		return nil, err
	}

	b := &backend{
		repo:       repo,
		initSchema: func(context.Context) error { return nil },
		save:       func() error { return nil },
		close:      func() {},
	}

	if stateFile == "" {
		return b, nil
	}

	if err = loadSnapshot(repo, stateFile); err != nil {
		return nil, err
	}

	b.save = func() error { return storeSnapshot(repo, stateFile) }

	return b, nil
}

func loadSnapshot(repo *memoryrepo.Repository, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer f.Close()

	return repo.ReadSnapshot(f)
}

// storeSnapshot replaces the state file atomically.
func storeSnapshot(repo *memoryrepo.Repository, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err = repo.WriteSnapshot(tmp); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
