package jobs

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"paydesk/internal/domain/payroll"
)

const (
	JobPayrollRun = "payroll_run"

	runHistoryLimit = 50
)

// PayrollRunner is the part of the payroll service the scheduler drives.
type PayrollRunner interface {
	CurrentMonth() string
	MonthRun(ctx context.Context, month string) (bool, error)
	RunMonth(ctx context.Context, month string) (payroll.RunSummary, error)
}

type Run struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Key         string    `json:"key"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Details     any       `json:"details,omitempty"`
	Error       string    `json:"error,omitempty"`
}

type job struct {
	Type string
	Key  string
	Run  func(context.Context) (any, error)
}

type Service struct {
	payroll  PayrollRunner
	interval time.Duration
	queue    chan job

	mu      sync.Mutex
	runs    []Run
	pending map[string]bool
}

func New(runner PayrollRunner, interval time.Duration) *Service {
	return &Service{
		payroll:  runner,
		interval: interval,
		queue:    make(chan job, 16),
		pending:  map[string]bool{},
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.interval > 0 {
		go s.schedulePayroll(ctx, s.interval)
	}
}

func (s *Service) Enqueue(jobType, key string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, Key: key, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "key", key)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, key string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Key: key, Run: run})
}

// RunPayroll runs month synchronously and records it like a scheduled run.
func (s *Service) RunPayroll(ctx context.Context, month string) (payroll.RunSummary, error) {
	details, err := s.RunNow(ctx, JobPayrollRun, month, func(ctx context.Context) (any, error) {
		return s.payroll.RunMonth(ctx, month)
	})
	summary, _ := details.(payroll.RunSummary)
	return summary, err
}

// Runs returns recorded job runs, newest first.
func (s *Service) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.runs)
	slices.Reverse(out)
	return out
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "key", j.Key, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	run := Run{ID: uuid.NewString(), Type: j.Type, Key: j.Key, Status: "running", StartedAt: time.Now()}

	details, err := j.Run(ctx)
	run.Status = "completed"
	run.Details = details
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	run.CompletedAt = time.Now()
	s.record(run)
	return details, err
}

func (s *Service) record(run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	if len(s.runs) > runHistoryLimit {
		s.runs = slices.Delete(s.runs, 0, len(s.runs)-runHistoryLimit)
	}
}

func (s *Service) schedulePayroll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueDuePayroll(ctx)
		}
	}
}

// enqueueDuePayroll queues the current month unless it already ran or is
// already queued.
func (s *Service) enqueueDuePayroll(ctx context.Context) {
	month := s.payroll.CurrentMonth()
	done, err := s.payroll.MonthRun(ctx, month)
	if err != nil {
		slog.Warn("payroll scheduler history lookup failed", "month", month, "err", err)
		return
	}
	if done || !s.markPending(month, true) {
		return
	}
	queued := s.Enqueue(JobPayrollRun, month, func(ctx context.Context) (any, error) {
		defer s.markPending(month, false)
		return s.payroll.RunMonth(ctx, month)
	})
	if !queued {
		s.markPending(month, false)
	}
}

// markPending sets or clears the pending flag for month and reports whether
// the flag changed.
func (s *Service) markPending(month string, pending bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[month] == pending {
		return false
	}
	if pending {
		s.pending[month] = true
	} else {
		delete(s.pending, month)
	}
	return true
}
