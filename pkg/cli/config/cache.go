package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/service/historycache"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Cache holds CLI flags for the session history cache
type Cache struct {
	backend  string
	redisURL string
	ttl      time.Duration
}

func (x *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cache-backend",
			Category:    "Cache",
			Usage:       "History cache backend (none, memory, redis)",
			Value:       "memory",
			Sources:     cli.EnvVars("TASKDESK_CACHE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "redis-url",
			Category:    "Cache",
			Usage:       "Redis URL, e.g. redis://localhost:6379/0",
			Sources:     cli.EnvVars("TASKDESK_REDIS_URL"),
			Destination: &x.redisURL,
		},
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Category:    "Cache",
			Usage:       "Lifetime of a cached session history",
			Value:       historycache.DefaultTTL,
			Sources:     cli.EnvVars("TASKDESK_CACHE_TTL"),
			Destination: &x.ttl,
		},
	}
}

func (x *Cache) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("backend", x.backend),
		slog.Bool("redis_url_set", x.redisURL != ""),
		slog.Duration("ttl", x.ttl),
	}
}

// Configure returns the history cache and a function releasing its connections. Backend
// "none" returns historycache.Noop, which disables caching.
func (x *Cache) Configure() (historycache.Cache, func(), error) {
	switch x.backend {
	case "none", "":
		return historycache.Noop{}, func() {}, nil

	case "memory":
		return historycache.NewMemory(x.ttl), func() {}, nil

	case "redis":
		if x.redisURL == "" {
			return nil, nil, goerr.Wrap(ErrMissingRequired, "redis-url is required for redis cache",
				goerr.V(FlagKey, "redis-url"))
		}
		cache, err := historycache.NewRedis(x.redisURL, x.ttl)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to configure redis cache")
		}
		closer := func() {
			if err := cache.Close(); err != nil {
				logging.Default().Warn("failed to close redis client", "error", err.Error())
			}
		}
		return cache, closer, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidBackend, "invalid cache backend", goerr.V(BackendKey, x.backend))
	}
}
