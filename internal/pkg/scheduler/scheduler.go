package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"

	"github.com/MartinKaiser/FinCal/internal/pkg/cache"
	"github.com/MartinKaiser/FinCal/internal/pkg/env"
	"github.com/MartinKaiser/FinCal/internal/pkg/finance"
	"github.com/MartinKaiser/FinCal/internal/pkg/metrics/counter"
	"github.com/MartinKaiser/FinCal/internal/pkg/notify"
)

// ErrRunInProgress is returned when a run is requested while another
// instance holds the run-lock for the same job.
var ErrRunInProgress = errors.New("scheduler: run already in progress")

// lockTTL bounds how long a crashed run can block the next one.
const lockTTL = 15 * time.Minute

// Scheduler triggers the scheduled processor and the notification sweeps.
// The cron engine is one possible trigger; the Run* methods are also
// exposed over the API so an external cron or operator can fire them.
// Every run is guarded by a Redis lock so overlapping triggers collapse
// into one run.
type Scheduler struct {
	cronEngine *cron.Cron
	finance    *finance.Service
	notify     *notify.Service
}

// New creates a scheduler around the finance and notify services.
func New(financeSvc *finance.Service, notifySvc *notify.Service) *Scheduler {
	return &Scheduler{
		cronEngine: cron.New(),
		finance:    financeSvc,
		notify:     notifySvc,
	}
}

// Start registers the cron entries and starts the engine. Specs come from
// the environment so deployments can move the runs or disable them with
// an empty spec.
func (s *Scheduler) Start() error {
	entries := []struct {
		name string
		spec string
		run  func()
	}{
		{"daily-processing", env.GetEnv("SCHEDULER_PROCESS_SPEC", "0 6 * * *"), func() { s.runLogged("daily-processing", s.wrapProcess) }},
		{"due-sweep", env.GetEnv("SCHEDULER_DUE_SPEC", "0 7 * * *"), func() { s.runLogged("due-sweep", s.wrapDue) }},
		{"overdue-sweep", env.GetEnv("SCHEDULER_OVERDUE_SPEC", "0 8 * * *"), func() { s.runLogged("overdue-sweep", s.wrapOverdue) }},
	}

	for _, entry := range entries {
		if entry.spec == "" {
			log.Infof("[Scheduler] %s disabled (empty spec)", entry.name)
			continue
		}
		if _, err := s.cronEngine.AddFunc(entry.spec, entry.run); err != nil {
			return fmt.Errorf("invalid cron spec %q for %s: %w", entry.spec, entry.name, err)
		}
		log.Infof("[Scheduler] registered %s with spec %q", entry.name, entry.spec)
	}

	s.cronEngine.Start()
	return nil
}

// Stop stops the cron engine and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
}

// RunDailyProcessing advances due subscriptions and installments once.
func (s *Scheduler) RunDailyProcessing(ctx context.Context) (*finance.RunReport, error) {
	release, err := s.acquireLock("process")
	if err != nil {
		return nil, err
	}
	defer release()

	report, err := s.finance.ProcessScheduled(ctx, time.Now())
	if err == nil {
		s.count("process", func() error { return counter.AddTransactionsBooked(report.TransactionsCreated) })
	}
	return report, err
}

// RunDueSweep dispatches "due soon" notifications once.
func (s *Scheduler) RunDueSweep(ctx context.Context) (*notify.DispatchReport, error) {
	release, err := s.acquireLock("due")
	if err != nil {
		return nil, err
	}
	defer release()

	report, err := s.notify.SendNotificationsDue(ctx, time.Now())
	if err == nil {
		s.count("due", func() error { return counter.AddNotificationsCreated(report.Created) })
	}
	return report, err
}

// RunOverdueSweep dispatches overdue notifications once.
func (s *Scheduler) RunOverdueSweep(ctx context.Context) (*notify.DispatchReport, error) {
	release, err := s.acquireLock("overdue")
	if err != nil {
		return nil, err
	}
	defer release()

	report, err := s.notify.SendNotificationsOverdue(ctx, time.Now())
	if err == nil {
		s.count("overdue", func() error { return counter.AddNotificationsCreated(report.Created) })
	}
	return report, err
}

// count updates Redis counters best-effort; a metrics failure never
// fails the run.
func (s *Scheduler) count(job string, add func() error) {
	if err := counter.AddJobRun(job); err != nil {
		log.Errorf("[Scheduler] failed to count run for %s: %v", job, err)
	}
	if err := add(); err != nil {
		log.Errorf("[Scheduler] failed to update counters for %s: %v", job, err)
	}
}

func (s *Scheduler) acquireLock(job string) (func(), error) {
	key := "scheduler:lock:" + job
	ok, err := cache.SetNX(key, time.Now().Format(time.RFC3339), lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return func() {
		if err := cache.Delete(key); err != nil {
			log.Errorf("[Scheduler] failed to release lock %s: %v", key, err)
		}
	}, nil
}

func (s *Scheduler) wrapProcess(ctx context.Context) error {
	_, err := s.RunDailyProcessing(ctx)
	return err
}

func (s *Scheduler) wrapDue(ctx context.Context) error {
	_, err := s.RunDueSweep(ctx)
	return err
}

func (s *Scheduler) wrapOverdue(ctx context.Context) error {
	_, err := s.RunOverdueSweep(ctx)
	return err
}

func (s *Scheduler) runLogged(name string, run func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), lockTTL)
	defer cancel()

	log.Infof("[Scheduler] %s starting", name)
	if err := run(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			log.Infof("[Scheduler] %s skipped, run already in progress", name)
			return
		}
		log.Errorf("[Scheduler] %s failed: %v", name, err)
		return
	}
	log.Infof("[Scheduler] %s finished", name)
}
