package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/glowlabs-ai/glow-backend/internal/data/repos/events"
	"github.com/glowlabs-ai/glow-backend/internal/data/repos/identity"
	"github.com/glowlabs-ai/glow-backend/internal/data/repos/syncjobs"
	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

const (
	// DefaultCooldown is the minimum interval between two completed syncs
	// for one user unless the trigger is forced.
	DefaultCooldown = 5 * time.Minute
	// DefaultStaleLockTimeout is how old an in_progress job may get before
	// the next trigger presumes it abandoned and fails it.
	DefaultStaleLockTimeout = 60 * time.Second
)

type TriggerOptions struct {
	Force       bool
	TriggeredBy string
	SkipModules []string
	OnProgress  ProgressFunc
}

type Outcome struct {
	Job      *domain.SyncJob                 `json:"job"`
	Results  map[string]*domain.ModuleResult `json:"results"`
	Duration time.Duration                   `json:"duration"`
}

type Status struct {
	IsRunning         bool            `json:"is_running"`
	CurrentJob        *domain.SyncJob `json:"current_job,omitempty"`
	LastSync          *domain.SyncJob `json:"last_sync,omitempty"`
	CanSync           bool            `json:"can_sync"`
	CooldownRemaining time.Duration   `json:"cooldown_remaining"`
}

type Service interface {
	TriggerSyncAll(ctx context.Context, userID uuid.UUID, opts TriggerOptions) (*Outcome, error)
	GetSyncStatus(ctx context.Context, userID uuid.UUID) (*Status, error)
	GetSyncJob(ctx context.Context, jobID, userID uuid.UUID) (*domain.SyncJob, error)
	ListSyncJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.SyncJob, int64, error)
	RetrySyncJob(ctx context.Context, jobID, userID uuid.UUID, onProgress ProgressFunc) (*Outcome, error)
}

type Options struct {
	Cooldown         time.Duration
	StaleLockTimeout time.Duration
}

type service struct {
	log      *logger.Logger
	jobs     syncjobs.SyncJobRepo
	profiles identity.ProfileRepo
	events   events.UserEventRepo
	builder  *Builder
	executor *Executor
	broker   *Broker

	cooldown   time.Duration
	staleAfter time.Duration

	// serializes retries per user; the trigger path relies on the DB lock
	retryLocks gosync.Map
}

func NewService(
	baseLog *logger.Logger,
	jobs syncjobs.SyncJobRepo,
	profiles identity.ProfileRepo,
	eventLog events.UserEventRepo,
	builder *Builder,
	executor *Executor,
	broker *Broker,
	opts Options,
) Service {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.StaleLockTimeout <= 0 {
		opts.StaleLockTimeout = DefaultStaleLockTimeout
	}
	return &service{
		log:        baseLog.With("service", "SyncService"),
		jobs:       jobs,
		profiles:   profiles,
		events:     eventLog,
		builder:    builder,
		executor:   executor,
		broker:     broker,
		cooldown:   opts.Cooldown,
		staleAfter: opts.StaleLockTimeout,
	}
}

func (s *service) TriggerSyncAll(ctx context.Context, userID uuid.UUID, opts TriggerOptions) (*Outcome, error) {
	start := time.Now()
	dbc := dbctx.New(ctx)
	if opts.TriggeredBy == "" {
		opts.TriggeredBy = domain.TriggeredByManual
	}

	// 1a. concurrent-job check with lazy stale takeover
	active, err := s.jobs.GetActiveForUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("check active sync job: %w", err)
	}
	if active != nil {
		if time.Since(active.StartedAt) < s.staleAfter {
			return nil, &ConflictError{JobID: active.ID}
		}
		s.log.Warn("auto-failing stale sync job", "job_id", active.ID, "user_id", userID, "age", time.Since(active.StartedAt))
		if _, err := s.jobs.FailStale(dbc, active.ID, "sync lock expired"); err != nil {
			return nil, fmt.Errorf("fail stale sync job: %w", err)
		}
		// free the abandoned run's lock without touching last_synced_at
		if err := s.profiles.ReleaseSyncLock(dbc, userID, nil); err != nil {
			return nil, fmt.Errorf("release stale sync lock: %w", err)
		}
	}

	// 1b. cooldown
	if !opts.Force {
		last, err := s.jobs.GetLatestCompleted(dbc, userID)
		if err != nil {
			return nil, fmt.Errorf("check sync cooldown: %w", err)
		}
		if last != nil && last.CompletedAt != nil {
			if elapsed := time.Since(*last.CompletedAt); elapsed < s.cooldown {
				return nil, &RateLimitedError{Remaining: s.cooldown - elapsed}
			}
		}
	}

	// 1c. profile existence, before any lock write
	profile, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load identity profile: %w", err)
	}
	if profile == nil {
		return nil, &PreconditionError{UserID: userID}
	}

	// 2. atomic check-and-set lock
	acquired, err := s.profiles.AcquireSyncLock(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, &ConflictError{}
	}
	defer func() {
		now := time.Now()
		if err := s.profiles.ReleaseSyncLock(dbc, userID, &now); err != nil {
			s.log.Error("failed to release sync lock", "user_id", userID, "error", err)
		}
	}()

	// 3. durable job record
	requested := RequestedModules(nil, opts.SkipModules)
	job := &domain.SyncJob{
		ID:           uuid.New(),
		UserID:       userID,
		Status:       domain.SyncJobInProgress,
		TriggeredBy:  opts.TriggeredBy,
		TotalModules: len(requested),
		StartedAt:    start,
	}
	if _, err := s.jobs.Create(dbc, job); err != nil {
		return nil, fmt.Errorf("create sync job: %w", err)
	}

	// 4. audit
	s.logEvent(dbc, userID, "sync.triggered", map[string]any{
		"job_id":       job.ID,
		"triggered_by": opts.TriggeredBy,
		"modules":      requested,
	})

	// 5. immutable snapshot
	gc, err := s.builder.Build(ctx, userID)
	if err != nil {
		s.failJob(dbc, job, fmt.Sprintf("context build failed: %v", err))
		return nil, fmt.Errorf("build generation context: %w", err)
	}
	if gc == nil {
		s.failJob(dbc, job, "identity profile disappeared during sync")
		return nil, &NotFoundError{Resource: "identity profile", ID: userID}
	}

	// 6. concurrent module run, write-through progress
	results := s.executor.Run(ctx, job.ID, userID, gc, RunOptions{
		Modules:     requested,
		TriggeredBy: opts.TriggeredBy,
	}, s.wrapProgress(dbc, job.ID, opts.OnProgress))

	// 7. finalize
	if err := s.finalizeJob(dbc, job, results); err != nil {
		return nil, err
	}

	return &Outcome{Job: job, Results: results, Duration: time.Since(start)}, nil
}

func (s *service) GetSyncStatus(ctx context.Context, userID uuid.UUID) (*Status, error) {
	dbc := dbctx.New(ctx)

	active, err := s.jobs.GetActiveForUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("check active sync job: %w", err)
	}
	last, err := s.jobs.GetLatestCompleted(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load last sync: %w", err)
	}

	status := &Status{
		IsRunning:  active != nil,
		CurrentJob: active,
		LastSync:   last,
	}
	if last != nil && last.CompletedAt != nil {
		if elapsed := time.Since(*last.CompletedAt); elapsed < s.cooldown {
			status.CooldownRemaining = s.cooldown - elapsed
		}
	}
	status.CanSync = !status.IsRunning && status.CooldownRemaining == 0
	return status, nil
}

func (s *service) GetSyncJob(ctx context.Context, jobID, userID uuid.UUID) (*domain.SyncJob, error) {
	job, err := s.jobs.GetByID(dbctx.New(ctx), jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("load sync job: %w", err)
	}
	return job, nil
}

func (s *service) ListSyncJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.SyncJob, int64, error) {
	jobs, total, err := s.jobs.ListByUser(dbctx.New(ctx), userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list sync jobs: %w", err)
	}
	return jobs, total, nil
}

func (s *service) RetrySyncJob(ctx context.Context, jobID, userID uuid.UUID, onProgress ProgressFunc) (*Outcome, error) {
	start := time.Now()
	dbc := dbctx.New(ctx)

	// concurrent retries of one user's jobs would interleave result writes;
	// a per-user mutex is enough for this single-process design
	muAny, _ := s.retryLocks.LoadOrStore(userID, &gosync.Mutex{})
	mu := muAny.(*gosync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	job, err := s.jobs.GetByID(dbc, jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("load sync job: %w", err)
	}
	if job == nil {
		return nil, &NotFoundError{Resource: "sync job", ID: jobID}
	}
	if job.Status != domain.SyncJobFailed && job.Status != domain.SyncJobCompleted {
		return nil, &InvalidRetryError{JobID: jobID, Reason: "job is still in progress"}
	}
	previous, err := job.Results()
	if err != nil {
		return nil, fmt.Errorf("decode module results: %w", err)
	}
	if len(job.FailedModules()) == 0 {
		return nil, &InvalidRetryError{JobID: jobID, Reason: "no failed modules to retry"}
	}

	// fresh snapshot so profile edits since the original run are picked up
	gc, err := s.builder.Build(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build generation context: %w", err)
	}
	if gc == nil {
		return nil, &NotFoundError{Resource: "identity profile", ID: userID}
	}

	s.logEvent(dbc, userID, "sync.retried", map[string]any{
		"job_id":  job.ID,
		"modules": job.FailedModules(),
	})

	merged := s.executor.RetryFailedModules(ctx, job.ID, userID, gc, previous, s.wrapRetryProgress(dbc, job.ID, onProgress))

	// terminal job mutated in place; no in_progress transition, no lock
	completed, failed := countResults(merged)
	status := domain.SyncJobCompleted
	var errText *string
	if failed > 0 {
		status = domain.SyncJobFailed
		msg := fmt.Sprintf("%d of %d modules failed", failed, job.TotalModules)
		errText = &msg
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":            status,
		"completed_modules": completed,
		"current_module":    nil,
		"module_results":    domain.MarshalModuleResults(merged),
		"completed_at":      now,
		"error":             errText,
	}
	if err := s.jobs.UpdateFields(dbc, job.ID, updates); err != nil {
		return nil, fmt.Errorf("persist retry results: %w", err)
	}

	job.Status = status
	job.CompletedModules = completed
	job.CurrentModule = nil
	job.ModuleResults = domain.MarshalModuleResults(merged)
	job.CompletedAt = &now
	job.Error = errText

	return &Outcome{Job: job, Results: merged, Duration: time.Since(start)}, nil
}

// wrapProgress fans each executor snapshot out to the job row (write-through,
// guarded against a stale takeover that already failed the job), the broker,
// and the caller's callback.
func (s *service) wrapProgress(dbc dbctx.Context, jobID uuid.UUID, onProgress ProgressFunc) ProgressFunc {
	return func(p Progress) {
		updates := map[string]interface{}{
			"completed_modules": p.CompletedModules,
			"current_module":    p.CurrentModule,
			"module_results":    terminalResults(p),
		}
		if _, err := s.jobs.UpdateFieldsUnlessStatus(dbc, jobID, []string{domain.SyncJobFailed, domain.SyncJobCompleted}, updates); err != nil {
			s.log.Warn("failed to persist sync progress", "job_id", jobID, "error", err)
		}
		s.publish(p)
		if onProgress != nil {
			onProgress(p)
		}
	}
}

// wrapRetryProgress is the retry-path variant: the job is already terminal,
// so writes are unconditional and the status column is left alone.
func (s *service) wrapRetryProgress(dbc dbctx.Context, jobID uuid.UUID, onProgress ProgressFunc) ProgressFunc {
	return func(p Progress) {
		updates := map[string]interface{}{
			"completed_modules": p.CompletedModules,
			"current_module":    p.CurrentModule,
			"module_results":    terminalResults(p),
		}
		if err := s.jobs.UpdateFields(dbc, jobID, updates); err != nil {
			s.log.Warn("failed to persist retry progress", "job_id", jobID, "error", err)
		}
		s.publish(p)
		if onProgress != nil {
			onProgress(p)
		}
	}
}

func (s *service) publish(p Progress) {
	if s.broker != nil {
		s.broker.Publish(p)
	}
}

func (s *service) finalizeJob(dbc dbctx.Context, job *domain.SyncJob, results map[string]*domain.ModuleResult) error {
	completed, failed := countResults(results)
	status := domain.SyncJobCompleted
	var errText *string
	if failed > 0 {
		status = domain.SyncJobFailed
		msg := fmt.Sprintf("%d of %d modules failed", failed, job.TotalModules)
		errText = &msg
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":            status,
		"completed_modules": completed,
		"current_module":    nil,
		"module_results":    domain.MarshalModuleResults(results),
		"completed_at":      now,
		"error":             errText,
	}
	changed, err := s.jobs.UpdateFieldsUnlessStatus(dbc, job.ID, []string{domain.SyncJobFailed}, updates)
	if err != nil {
		return fmt.Errorf("finalize sync job: %w", err)
	}
	if !changed {
		// a stale takeover already failed this job; keep that verdict
		s.log.Warn("sync job was failed underneath a finishing run", "job_id", job.ID)
		job.Status = domain.SyncJobFailed
		return nil
	}

	job.Status = status
	job.CompletedModules = completed
	job.CurrentModule = nil
	job.ModuleResults = domain.MarshalModuleResults(results)
	job.CompletedAt = &now
	job.Error = errText

	eventType := "sync.completed"
	if status == domain.SyncJobFailed {
		eventType = "sync.failed"
	}
	s.logEvent(dbc, job.UserID, eventType, map[string]any{
		"job_id":            job.ID,
		"completed_modules": completed,
		"failed_modules":    failed,
	})
	return nil
}

func (s *service) failJob(dbc dbctx.Context, job *domain.SyncJob, reason string) {
	now := time.Now()
	err := s.jobs.UpdateFields(dbc, job.ID, map[string]interface{}{
		"status":       domain.SyncJobFailed,
		"error":        reason,
		"completed_at": now,
	})
	if err != nil {
		s.log.Error("failed to mark sync job failed", "job_id", job.ID, "error", err)
		return
	}
	job.Status = domain.SyncJobFailed
	job.Error = &reason
	job.CompletedAt = &now
}

func (s *service) logEvent(dbc dbctx.Context, userID uuid.UUID, eventType string, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(dbc, userID, eventType, payload); err != nil {
		s.log.Warn("failed to append user event", "type", eventType, "user_id", userID, "error", err)
	}
}

func countResults(results map[string]*domain.ModuleResult) (completed, failed int) {
	for _, r := range results {
		if r == nil {
			continue
		}
		switch r.Status {
		case domain.ModuleResultCompleted:
			completed++
		case domain.ModuleResultFailed:
			failed++
		}
	}
	return completed, failed
}

// terminalResults strips transient pending/running entries before a snapshot
// hits the jsonb column; only settled results are ever at rest.
func terminalResults(p Progress) datatypes.JSON {
	out := map[string]*domain.ModuleResult{}
	for name, r := range p.Results {
		if r.Status == domain.ModuleResultCompleted || r.Status == domain.ModuleResultFailed {
			rr := r
			out[name] = &rr
		}
	}
	return domain.MarshalModuleResults(out)
}
