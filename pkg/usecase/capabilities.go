package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/taskdesk/taskdesk/pkg/utils/metrics"
)

// CheckFunc reports whether an optional backend is usable
type CheckFunc func(ctx context.Context) error

// checkTimeout bounds one readiness check. Checks run detached from the caller's cancellation.
const checkTimeout = 5 * time.Second

// Capabilities tells the pipeline which optional backends it may use. Each check is decided once,
// on first use, and its result holds for the lifetime of the process. A check interrupted by
// cancellation stays undecided and runs again on the next call.
type Capabilities struct {
	vector capability
	cache  capability
	web    bool
}

type capability struct {
	name    string
	fn      CheckFunc
	mu      sync.Mutex
	decided bool
	ok      bool
}

func (p *capability) check(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.decided {
		return p.ok
	}
	if p.fn == nil {
		p.decided = true
		return false
	}

	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), checkTimeout)
	defer cancel()

	if err := p.fn(checkCtx); err != nil {
		if errors.Is(err, context.Canceled) {
			logging.From(ctx).Warn("capability check interrupted, retrying on next use",
				"capability", p.name)
			return false
		}
		logging.From(ctx).Warn("capability unavailable, degrading",
			"capability", p.name,
			"error", err.Error())
		metrics.Degraded.WithLabelValues(p.name).Inc()
		p.decided = true
		return false
	}

	p.decided = true
	p.ok = true
	return true
}

// NewCapabilities builds the capability set. A nil check marks the capability as absent.
func NewCapabilities(vector, cache CheckFunc, web bool) *Capabilities {
	return &Capabilities{
		vector: capability{name: metrics.CapabilityVector, fn: vector},
		cache:  capability{name: metrics.CapabilityCache, fn: cache},
		web:    web,
	}
}

// Vector reports whether the embedding store accepted its ensure step
func (c *Capabilities) Vector(ctx context.Context) bool {
	return c.vector.check(ctx)
}

// Cache reports whether the history cache answered its first ping
func (c *Capabilities) Cache(ctx context.Context) bool {
	return c.cache.check(ctx)
}

// Web reports whether web search is configured
func (c *Capabilities) Web() bool {
	return c.web
}
