package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dirsync/core/bean"
	"dirsync/core/connector"
	"dirsync/core/logger"
	"dirsync/core/reconcile"
	"dirsync/core/syncoptions"
	"dirsync/feature/audit"
	"dirsync/feature/source"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNoConnectors is returned by Run when no source or destination is configured.
	ErrNoConnectors = errors.New("source and destination connectors are not configured")
	// ErrNoAudit is returned when audit logs are requested without an audit writer.
	ErrNoAudit = errors.New("audit is not configured")
)

// SourceFactory builds the source connector of a task.
type SourceFactory func(task *syncoptions.Task) (connector.Source, error)

// SQLSources returns a factory reading task sources from db.
func SQLSources(db *gorm.DB) SourceFactory {
	return func(task *syncoptions.Task) (connector.Source, error) {
		return source.NewSQLSource(db, task)
	}
}

// PreviewRequest is a single-entry reconciliation input.
type PreviewRequest struct {
	Source      *bean.Bean `json:"source"`
	Destination *bean.Bean `json:"destination"`
	Condition   bool       `json:"condition"`
	Custom      any        `json:"custom,omitempty"`
}

// RunOptions controls a task run.
type RunOptions struct {
	DryRun bool
	Clean  bool
	Custom any
}

// RunResult is the outcome of a task run.
type RunResult struct {
	Plan     *reconcile.Plan `json:"plan"`
	Applied  int             `json:"applied"`
	DryRun   bool            `json:"dry_run"`
	Audit    string          `json:"audit,omitempty"`
	Duration string          `json:"duration"`
}

// Service runs synchronization tasks.
type Service struct {
	store       *syncoptions.Store
	reconciler  *reconcile.Reconciler
	sources     SourceFactory
	destination connector.Destination
	audit       *audit.Writer
	allowApply  bool
	logger      *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithConnectors sets the source factory and the destination used by Run.
func WithConnectors(sources SourceFactory, destination connector.Destination) ServiceOption {
	return func(s *Service) {
		s.sources = sources
		s.destination = destination
	}
}

// WithAudit records applied operations with w.
func WithAudit(w *audit.Writer) ServiceOption {
	return func(s *Service) {
		s.audit = w
	}
}

// WithApply lets Run apply operations.
func WithApply(allow bool) ServiceOption {
	return func(s *Service) {
		s.allowApply = allow
	}
}

// NewService creates a new synchronization service.
func NewService(store *syncoptions.Store, reconciler *reconcile.Reconciler, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:      store,
		reconciler: reconciler,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTasks returns the available task names.
func (s *Service) ListTasks(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// GetTask returns the policy of a task.
func (s *Service) GetTask(ctx context.Context, name string) (*syncoptions.Task, error) {
	return s.store.Get(ctx, name)
}

// InvalidateTask drops the cached policy of a task.
func (s *Service) InvalidateTask(name string) {
	s.store.Invalidate(name)
}

// Preview computes the operation for a single pair without touching any
// connector. A nil operation means the entry is already synchronized.
func (s *Service) Preview(ctx context.Context, name string, req PreviewRequest) (*reconcile.Operation, error) {
	task, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.reconciler.CalculateModifications(reconcile.Request{
		Options:     task.Options(),
		Source:      req.Source,
		Destination: req.Destination,
		Custom:      req.Custom,
		Condition:   req.Condition,
	})
}

// Run plans a task against its connectors and applies the plan unless it is
// a dry run. Applied operations are recorded in the audit log, including
// those applied before a failure.
func (s *Service) Run(ctx context.Context, name string, opts RunOptions) (*RunResult, error) {
	if s.sources == nil || s.destination == nil {
		return nil, ErrNoConnectors
	}
	start := time.Now()
	log := logger.WithTask(s.logger, name)

	task, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	src, err := s.sources(task)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	pairs, err := connector.Pairs(ctx, src, s.destination, task.Pivot)
	if err != nil {
		return nil, fmt.Errorf("failed to pair entries: %w", err)
	}

	dryRun := opts.DryRun || !s.allowApply
	plan, err := s.reconciler.ReconcileWithPlan(ctx, task.Options(), pairs, reconcile.PlanOptions{
		Custom:    opts.Custom,
		Condition: !dryRun,
		Clean:     opts.Clean,
	})
	if err != nil {
		return nil, err
	}

	result := &RunResult{Plan: plan, DryRun: dryRun}
	applied, applyErr := reconcile.ApplyPlan(ctx, s.destination, plan, reconcile.ApplyOptions{
		DryRun:    dryRun,
		Confirmed: true,
	})
	result.Applied = applied

	if applied > 0 && s.audit != nil {
		object, err := s.audit.Write(ctx, task.Name, plan.Operations[:applied])
		if err != nil {
			log.Error("Failed to write audit log", zap.Error(err))
		}
		result.Audit = object
	}
	result.Duration = time.Since(start).String()

	log.Info("Task run completed",
		zap.Bool("dry_run", dryRun),
		zap.Int("entries", plan.Summary.TotalEntries),
		zap.Int("operations", len(plan.Operations)),
		zap.Int("applied", applied),
		zap.String("duration", result.Duration),
	)
	if applyErr != nil {
		return result, applyErr
	}
	return result, nil
}

// AuditLogs returns at most limit audit objects of a task, newest last.
// A limit of 0 returns every object.
func (s *Service) AuditLogs(ctx context.Context, name string, limit int) ([]string, error) {
	if s.audit == nil {
		return nil, ErrNoAudit
	}
	names, err := s.audit.List(ctx, name)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(names) > limit {
		names = names[len(names)-limit:]
	}
	return names, nil
}

// PruneAudit deletes the oldest audit objects of a task, keeping keep objects.
func (s *Service) PruneAudit(ctx context.Context, name string, keep int) (int, error) {
	if s.audit == nil {
		return 0, ErrNoAudit
	}
	return s.audit.Prune(ctx, name, keep)
}
