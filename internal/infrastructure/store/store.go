// Package store opens the credential store selected by DATABASE_URL.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-service/config"
	"github.com/oksasatya/user-account-service/internal/domain/repository"
	"github.com/oksasatya/user-account-service/internal/infrastructure/memory"
	"github.com/oksasatya/user-account-service/internal/infrastructure/mongodb"
	"github.com/oksasatya/user-account-service/internal/infrastructure/postgres"
)

// Store is an open credential store together with its release func.
type Store struct {
	Driver string
	Users  repository.UserRepository
	Close  func(ctx context.Context) error
}

// Open connects the backend named by cfg.StoreDriver, prepares its schema
// or indexes and returns the repository.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Store, error) {
	driver, err := cfg.StoreDriver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverMemory:
		logger.Warn("using in-memory credential store; data is lost on restart")
		return &Store{
			Driver: driver,
			Users:  memory.NewUserRepository(),
			Close:  func(context.Context) error { return nil },
		}, nil

	case config.DriverPostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir, logger); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		db, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		logger.Info("connected to postgres")
		return &Store{
			Driver: driver,
			Users:  postgres.NewUserRepository(db),
			Close:  func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		client, err := mongodb.NewClient(ctx, cfg.DatabaseURL, uint64(max(cfg.DBMaxConns, 0)), uint64(max(cfg.DBMinConns, 0)))
		if err != nil {
			return nil, fmt.Errorf("mongodb: %w", err)
		}
		coll := client.Database(mongoDatabase(cfg)).Collection(mongodb.UsersCollection)
		if err := mongodb.EnsureIndexes(ctx, coll); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongodb indexes: %w", err)
		}
		logger.WithField("database", coll.Database().Name()).Info("connected to mongodb")
		return &Store{
			Driver: driver,
			Users:  mongodb.NewUserRepository(coll),
			Close:  client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", driver)
}

// mongoDatabase prefers the database named in the URI path over MONGO_DATABASE.
func mongoDatabase(cfg *config.Config) string {
	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return cfg.MongoDatabase
}
