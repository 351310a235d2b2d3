package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

type RunOptions struct {
	Modules     []string
	SkipModules []string
	TriggeredBy string
	Retry       bool
}

// Executor fans the requested modules out as concurrent tasks and joins
// them. Each task settles into a typed result; one module's failure never
// cancels or fails its siblings.
type Executor struct {
	log      *logger.Logger
	registry Registry
}

func NewExecutor(baseLog *logger.Logger, registry Registry) *Executor {
	return &Executor{
		log:      baseLog.With("service", "ModuleExecutor"),
		registry: registry,
	}
}

// runState aggregates per-task outcomes and emits progress snapshots in
// completion order.
type runState struct {
	mu         gosync.Mutex
	jobID      uuid.UUID
	userID     uuid.UUID
	total      int
	completed  int
	results    map[string]*domain.ModuleResult
	onProgress ProgressFunc
}

func (st *runState) start(module string) {
	st.mu.Lock()
	st.results[module] = &domain.ModuleResult{
		Module:    module,
		Status:    domain.ModuleResultRunning,
		StartedAt: time.Now(),
	}
	st.emitLocked(module)
	st.mu.Unlock()
}

func (st *runState) finish(module string, items int, genErr error) {
	now := time.Now()
	st.mu.Lock()
	r := st.results[module]
	if r == nil {
		r = &domain.ModuleResult{Module: module, StartedAt: now}
		st.results[module] = r
	}
	r.CompletedAt = &now
	if genErr != nil {
		r.Status = domain.ModuleResultFailed
		r.Error = genErr.Error()
	} else {
		r.Status = domain.ModuleResultCompleted
		r.ItemsProcessed = items
		st.completed++
	}
	st.emitLocked(module)
	st.mu.Unlock()
}

func (st *runState) emitLocked(current string) {
	if st.onProgress == nil {
		return
	}
	snapshot := make(map[string]domain.ModuleResult, len(st.results))
	for name, r := range st.results {
		snapshot[name] = *r
	}
	st.onProgress(Progress{
		JobID:            st.jobID,
		UserID:           st.userID,
		CompletedModules: st.completed,
		TotalModules:     st.total,
		CurrentModule:    current,
		Results:          snapshot,
		At:               time.Now(),
	})
}

// Run executes the requested modules concurrently against the snapshot and
// returns the settled result map. Progress snapshots fire in completion
// order, not launch order.
func (e *Executor) Run(ctx context.Context, jobID, userID uuid.UUID, gc *GenerationContext, opts RunOptions, onProgress ProgressFunc) map[string]*domain.ModuleResult {
	requested := RequestedModules(opts.Modules, opts.SkipModules)
	st := &runState{
		jobID:      jobID,
		userID:     userID,
		total:      len(requested),
		results:    map[string]*domain.ModuleResult{},
		onProgress: onProgress,
	}
	e.fanOut(ctx, userID, gc, requested, opts, st)
	return st.results
}

// RetryFailedModules re-executes only the modules whose previous result
// failed. Completed results pass through untouched — same object, same
// timestamps — and the merged map preserves every original key.
func (e *Executor) RetryFailedModules(ctx context.Context, jobID, userID uuid.UUID, gc *GenerationContext, previous map[string]*domain.ModuleResult, onProgress ProgressFunc) map[string]*domain.ModuleResult {
	st := &runState{
		jobID:      jobID,
		userID:     userID,
		total:      len(previous),
		results:    map[string]*domain.ModuleResult{},
		onProgress: onProgress,
	}
	var rerun []string
	for _, name := range AllModules {
		prev, ok := previous[name]
		if !ok {
			continue
		}
		if prev != nil && prev.Status == domain.ModuleResultFailed {
			rerun = append(rerun, name)
			continue
		}
		st.results[name] = prev
		if prev != nil && prev.Status == domain.ModuleResultCompleted {
			st.completed++
		}
	}
	// previous runs may hold keys outside the canonical list; keep them
	for name, prev := range previous {
		if _, seen := st.results[name]; seen {
			continue
		}
		known := false
		for _, r := range rerun {
			if r == name {
				known = true
				break
			}
		}
		if !known {
			st.results[name] = prev
		}
	}
	e.fanOut(ctx, userID, gc, rerun, RunOptions{Retry: true}, st)
	return st.results
}

func (e *Executor) fanOut(ctx context.Context, userID uuid.UUID, gc *GenerationContext, modules []string, opts RunOptions, st *runState) {
	if len(modules) == 0 {
		return
	}
	genOpts := GenerateOptions{TriggeredBy: opts.TriggeredBy, Retry: opts.Retry}

	// deliberately not errgroup.WithContext: a failing module must not
	// cancel its siblings, so tasks always return nil and settle into the
	// shared state instead.
	var g errgroup.Group
	for _, name := range modules {
		name := name
		mod, ok := e.registry[name]
		if !ok {
			st.start(name)
			st.finish(name, 0, fmt.Errorf("module %q not registered", name))
			continue
		}
		g.Go(func() error {
			st.start(name)
			mc := ModuleContextFor(gc, name)
			res, err := mod.Generate(ctx, userID, mc, genOpts)
			if err != nil {
				e.log.Warn("module failed", "module", name, "user_id", userID, "error", err)
				st.finish(name, 0, err)
				return nil
			}
			items := 0
			if res != nil {
				items = res.ItemsProcessed
			}
			st.finish(name, items, nil)
			return nil
		})
	}
	_ = g.Wait()
}
