package commands

import (
	"fmt"

	"github.com/gaborage/facility-client/config"
	"github.com/gaborage/facility-client/session"
	redisstore "github.com/gaborage/facility-client/session/redis"
)

// openSessionStore returns the store selected by cfg and its release func.
func openSessionStore(cfg config.SessionConfig) (session.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreMemory, "":
		return session.NewMemoryStore(), noop, nil
	case config.StoreFile:
		return session.NewFileStore(cfg.File.Path), noop, nil
	case config.StoreRedis:
		s, err := redisstore.NewStore(redisstore.FromSessionConfig(cfg.Redis))
		if err != nil {
			return nil, nil, fmt.Errorf("open redis session store: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, config.NewInvalidFieldError("session.store", fmt.Sprintf("unknown store: %s", cfg.Store),
			[]string{config.StoreMemory, config.StoreFile, config.StoreRedis})
	}
}
