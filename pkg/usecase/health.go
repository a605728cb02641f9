package usecase

import (
	"context"

	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/service/historycache"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
)

// Health is the liveness report of the pipeline dependencies
type Health struct {
	OK     bool `json:"ok"`
	DB     bool `json:"db"`
	Cache  bool `json:"cache"`
	Vector bool `json:"vector"`
	Web    bool `json:"web"`
}

type HealthUseCase struct {
	repo  interfaces.Repository
	cache historycache.Cache
	caps  *Capabilities
}

func NewHealthUseCase(repo interfaces.Repository, cache historycache.Cache, caps *Capabilities) *HealthUseCase {
	return &HealthUseCase{repo: repo, cache: cache, caps: caps}
}

// Check pings the store and the cache on every call. Vector readiness is the cached check.
func (uc *HealthUseCase) Check(ctx context.Context) *Health {
	h := &Health{
		OK:     true,
		Vector: uc.caps.Vector(ctx),
		Web:    uc.caps.Web(),
	}

	if err := uc.repo.Ping(ctx); err != nil {
		logging.From(ctx).Warn("store ping failed", "error", err.Error())
	} else {
		h.DB = true
	}

	if uc.caps.Cache(ctx) {
		if err := uc.cache.Ping(ctx); err != nil {
			logging.From(ctx).Warn("cache ping failed", "error", err.Error())
		} else {
			h.Cache = true
		}
	}

	return h
}
