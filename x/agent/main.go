// Package agent runs the scheduled background work
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/offbit-ai/zeal-auth/core"
)

var tracer = otel.Tracer("agent")

// lock TTL outlives a slow source fetch; the lock is released right after
// the work finishes either way
const reloadLockTTL = 2 * time.Minute

type agent struct {
	policy    core.PolicyService
	hierarchy core.HierarchyService
	lock      core.LockService
	config    core.Config
}

// NewAgent creates a new agent
func NewAgent(
	policy core.PolicyService,
	hierarchy core.HierarchyService,
	lock core.LockService,
	config core.Config,
) core.AgentService {
	return &agent{
		policy,
		hierarchy,
		lock,
		config,
	}
}

// Boot starts the tickers. Each reload is fenced with a distributed lock so
// only one replica hits the policy sources and hierarchy providers per tick.
func (a *agent) Boot() {
	slog.Info("agent start!")

	tickerPolicy := time.NewTicker(a.config.CacheTTL)
	go func() {
		for {
			select {
			case <-tickerPolicy.C:
				ctx, span := tracer.Start(context.Background(), "Agent.Boot.ReloadPolicies")
				a.reloadPolicies(ctx)
				span.End()
				break
			}
		}
	}()

	tickerHierarchy := time.NewTicker(a.config.RefreshInterval)
	go func() {
		for {
			select {
			case <-tickerHierarchy.C:
				ctx, span := tracer.Start(context.Background(), "Agent.Boot.RefreshHierarchy")
				a.refreshHierarchy(ctx)
				span.End()
				break
			}
		}
	}()
}

func (a *agent) reloadPolicies(ctx context.Context) {
	release, ok := a.acquire(ctx, "agent:policy-reload")
	if !ok {
		return
	}
	defer release()

	err := a.policy.Load(ctx)
	if err != nil {
		slog.Error("policy reload failed", slog.String("error", err.Error()))
	}
}

func (a *agent) refreshHierarchy(ctx context.Context) {
	release, ok := a.acquire(ctx, "agent:hierarchy-refresh")
	if !ok {
		return
	}
	defer release()

	err := a.hierarchy.Refresh(ctx)
	if err != nil {
		slog.Error("hierarchy refresh failed", slog.String("error", err.Error()))
	}
}

// acquire fences a reload; losing the race to another replica is the
// normal case and only worth a debug line
func (a *agent) acquire(ctx context.Context, resource string) (func(), bool) {
	if a.lock == nil {
		return func() {}, true
	}

	token, err := a.lock.Acquire(ctx, resource, reloadLockTTL)
	if err != nil {
		if errors.Is(err, core.ErrorLockNotAcquired{}) {
			slog.Debug("reload already running elsewhere", slog.String("resource", resource))
		} else {
			slog.Error("failed to acquire reload lock",
				slog.String("resource", resource),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	return func() {
		_, err := a.lock.Release(ctx, resource, token)
		if err != nil {
			slog.Error("failed to release reload lock",
				slog.String("resource", resource),
				slog.String("error", err.Error()),
			)
		}
	}, true
}
