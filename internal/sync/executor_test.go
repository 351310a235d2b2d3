package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowlabs-ai/glow-backend/internal/data/repos/testutil"
	"github.com/glowlabs-ai/glow-backend/internal/domain"
)

type fakeModule struct {
	name  string
	items int
	delay time.Duration

	mu      gosync.Mutex
	err     error
	calls   int
	lastCtx *ModuleContext
}

func (m *fakeModule) Name() string { return m.name }

func (m *fakeModule) Generate(ctx context.Context, userID uuid.UUID, mc *ModuleContext, opts GenerateOptions) (*GenerateResult, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastCtx = mc
	if m.err != nil {
		return nil, m.err
	}
	return &GenerateResult{ItemsProcessed: m.items}, nil
}

func (m *fakeModule) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *fakeModule) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newFakeModules() map[string]*fakeModule {
	fakes := map[string]*fakeModule{}
	for i, name := range AllModules {
		fakes[name] = &fakeModule{name: name, items: i + 1}
	}
	return fakes
}

func registryOf(fakes map[string]*fakeModule) Registry {
	reg := Registry{}
	for name, f := range fakes {
		reg[name] = f
	}
	return reg
}

type progressRecorder struct {
	mu        gosync.Mutex
	snapshots []Progress
}

func (r *progressRecorder) record(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, p)
}

func (r *progressRecorder) all() []Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Progress(nil), r.snapshots...)
}

func TestExecutorFaultIsolation(t *testing.T) {
	fakes := newFakeModules()
	fakes[ModuleBioGenerator].setErr(errors.New("openai: rate limited"))
	exec := NewExecutor(testutil.Logger(t), registryOf(fakes))

	rec := &progressRecorder{}
	results := exec.Run(context.Background(), uuid.New(), uuid.New(), &GenerationContext{}, RunOptions{}, rec.record)

	require.Len(t, results, len(AllModules))
	for name, r := range results {
		require.NotNil(t, r, name)
		if name == ModuleBioGenerator {
			assert.Equal(t, domain.ModuleResultFailed, r.Status)
			assert.Contains(t, r.Error, "rate limited")
		} else {
			assert.Equal(t, domain.ModuleResultCompleted, r.Status, name)
			assert.Positive(t, r.ItemsProcessed, name)
			assert.Empty(t, r.Error, name)
		}
		assert.NotNil(t, r.CompletedAt, name)
	}

	// one start + one finish snapshot per module
	snaps := rec.all()
	require.Len(t, snaps, 2*len(AllModules))
	prev := 0
	for _, p := range snaps {
		assert.GreaterOrEqual(t, p.CompletedModules, prev, "completedModules must be monotone")
		prev = p.CompletedModules
		assert.Equal(t, len(AllModules), p.TotalModules)
	}
	assert.Equal(t, len(AllModules)-1, snaps[len(snaps)-1].CompletedModules)
}

func TestExecutorSkipModules(t *testing.T) {
	fakes := newFakeModules()
	exec := NewExecutor(testutil.Logger(t), registryOf(fakes))

	results := exec.Run(context.Background(), uuid.New(), uuid.New(), &GenerationContext{}, RunOptions{
		SkipModules: []string{ModulePhotoRanking, ModuleAesthetic, "never_heard_of_it"},
	}, nil)

	require.Len(t, results, 3)
	assert.NotContains(t, results, ModulePhotoRanking)
	assert.NotContains(t, results, ModuleAesthetic)
	assert.Zero(t, fakes[ModulePhotoRanking].callCount())
}

func TestExecutorUnregisteredModule(t *testing.T) {
	exec := NewExecutor(testutil.Logger(t), Registry{})

	results := exec.Run(context.Background(), uuid.New(), uuid.New(), &GenerationContext{}, RunOptions{
		Modules: []string{ModuleBioGenerator},
	}, nil)

	require.Len(t, results, 1)
	assert.Equal(t, domain.ModuleResultFailed, results[ModuleBioGenerator].Status)
	assert.Contains(t, results[ModuleBioGenerator].Error, "not registered")
}

func TestRetryFailedModules(t *testing.T) {
	fakes := newFakeModules()
	exec := NewExecutor(testutil.Logger(t), registryOf(fakes))

	startedAt := time.Now().Add(-time.Hour)
	completedAt := startedAt.Add(time.Second)
	kept := &domain.ModuleResult{
		Module:         ModuleCareer,
		Status:         domain.ModuleResultCompleted,
		StartedAt:      startedAt,
		CompletedAt:    &completedAt,
		ItemsProcessed: 7,
	}
	previous := map[string]*domain.ModuleResult{
		ModuleCareer:       kept,
		ModuleBioGenerator: {Module: ModuleBioGenerator, Status: domain.ModuleResultFailed, StartedAt: startedAt, Error: "boom"},
	}

	rec := &progressRecorder{}
	merged := exec.RetryFailedModules(context.Background(), uuid.New(), uuid.New(), &GenerationContext{}, previous, rec.record)

	require.Len(t, merged, 2)
	// completed results pass through by identity
	assert.Same(t, kept, merged[ModuleCareer])
	assert.Equal(t, 0, fakes[ModuleCareer].callCount())

	assert.Equal(t, 1, fakes[ModuleBioGenerator].callCount())
	assert.Equal(t, domain.ModuleResultCompleted, merged[ModuleBioGenerator].Status)
	assert.Empty(t, merged[ModuleBioGenerator].Error)

	snaps := rec.all()
	require.NotEmpty(t, snaps)
	assert.Equal(t, 2, snaps[len(snaps)-1].CompletedModules)
	assert.Equal(t, 2, snaps[len(snaps)-1].TotalModules)
}

func TestRetryFailedModulesStillFailing(t *testing.T) {
	fakes := newFakeModules()
	fakes[ModuleDating].setErr(errors.New("still broken"))
	exec := NewExecutor(testutil.Logger(t), registryOf(fakes))

	previous := map[string]*domain.ModuleResult{
		ModuleDating: {Module: ModuleDating, Status: domain.ModuleResultFailed, Error: "boom"},
	}
	merged := exec.RetryFailedModules(context.Background(), uuid.New(), uuid.New(), &GenerationContext{}, previous, nil)

	require.Len(t, merged, 1)
	assert.Equal(t, domain.ModuleResultFailed, merged[ModuleDating].Status)
	assert.Contains(t, merged[ModuleDating].Error, "still broken")
}
