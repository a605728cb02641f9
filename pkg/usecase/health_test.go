package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/repository/memory"
	"github.com/taskdesk/taskdesk/pkg/service/historycache"
	"github.com/taskdesk/taskdesk/pkg/usecase"
)

func TestHealthUseCase_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("memory backends", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithHistoryCache(historycache.NewMemory(time.Hour)))
		h := uc.Health.Check(ctx)
		gt.Value(t, *h).Equal(usecase.Health{OK: true, DB: true, Cache: true, Vector: true, Web: false})
	})

	t.Run("cache not configured", func(t *testing.T) {
		uc := usecase.New(memory.New())
		h := uc.Health.Check(ctx)
		gt.Bool(t, h.DB).True()
		gt.Bool(t, h.Cache).False()
	})
}

func TestCapabilities(t *testing.T) {
	ctx := context.Background()

	t.Run("checks run once", func(t *testing.T) {
		calls := 0
		caps := usecase.NewCapabilities(func(context.Context) error {
			calls++
			return errors.New("no vector extension")
		}, nil, true)

		gt.Bool(t, caps.Vector(ctx)).False()
		gt.Bool(t, caps.Vector(ctx)).False()
		gt.Number(t, calls).Equal(1)
		gt.Bool(t, caps.Cache(ctx)).False()
		gt.Bool(t, caps.Web()).True()
	})

	t.Run("healthy backends", func(t *testing.T) {
		caps := usecase.NewCapabilities(func(context.Context) error { return nil }, func(context.Context) error { return nil }, false)
		gt.Bool(t, caps.Vector(ctx)).True()
		gt.Bool(t, caps.Cache(ctx)).True()
		gt.Bool(t, caps.Web()).False()
	})

	t.Run("cancelled caller does not disable a healthy backend", func(t *testing.T) {
		caps := usecase.NewCapabilities(func(ctx context.Context) error { return ctx.Err() }, nil, false)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		gt.Bool(t, caps.Vector(cancelled)).True()
		gt.Bool(t, caps.Vector(ctx)).True()
	})

	t.Run("interrupted check is retried", func(t *testing.T) {
		calls := 0
		caps := usecase.NewCapabilities(func(context.Context) error {
			calls++
			if calls == 1 {
				return context.Canceled
			}
			return nil
		}, nil, false)

		gt.Bool(t, caps.Vector(ctx)).False()
		gt.Bool(t, caps.Vector(ctx)).True()
		gt.Bool(t, caps.Vector(ctx)).True()
		gt.Number(t, calls).Equal(2)
	})
}
