// Package container builds the components shared by the HTTP server and
// the command line tools. It is constructed once in main and passed down
// explicitly.
package container

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-service/config"
	"github.com/oksasatya/user-account-service/internal/application"
	"github.com/oksasatya/user-account-service/internal/domain/repository"
	"github.com/oksasatya/user-account-service/internal/infrastructure/events"
	"github.com/oksasatya/user-account-service/internal/infrastructure/store"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Store  *store.Store

	JWT     *helpers.JWTManager
	Hasher  *helpers.PasswordHasher
	Cookies *helpers.Manager

	// Optional; nil when the backing service is not configured.
	Redis       *redis.Client
	Revocations *helpers.RevocationList
	Rabbit      *events.RabbitPublisher
}

// New connects every configured backend. Redis and RabbitMQ are optional;
// the credential store is not.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		JWT:     helpers.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL),
		Hasher:  helpers.NewPasswordHasher(cfg.BcryptCost, cfg.HashWorkers),
		Cookies: helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
	}

	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			_ = c.Close(ctx)
			return nil, err
		}
		c.Redis = rdb
		c.Revocations = helpers.NewRevocationList(rdb)
		logger.Info("session revocation enabled (redis)")
	}

	if cfg.RabbitMQURL != "" {
		pub, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEventsQueue)
		if err != nil {
			// account events are best effort
			logger.WithError(err).Warn("rabbitmq unavailable; account events disabled")
		} else {
			c.Rabbit = pub
			logger.WithField("queue", cfg.RabbitMQEventsQueue).Info("account events enabled (rabbitmq)")
		}
	}
	return c, nil
}

func (c *Container) Users() repository.UserRepository {
	return c.Store.Users
}

// Events returns the configured publisher, or a no-op one.
func (c *Container) Events() application.EventPublisher {
	if c.Rabbit == nil {
		return events.NopPublisher{}
	}
	return c.Rabbit
}

func (c *Container) UserService() *application.Service {
	return application.NewService(
		c.Users(),
		c.Hasher,
		c.JWT,
		c.Events(),
		c.Revocations,
		c.Logger,
		c.Config.AllowPrivilegedSignup,
	)
}

// Close releases every backend connection.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	c.Rabbit.Close()
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close(ctx))
	}
	return errors.Join(errs...)
}
