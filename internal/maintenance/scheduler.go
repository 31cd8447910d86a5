package maintenance

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of periodic work. The scheduler never runs the same
// job concurrently with itself.
type Job func(ctx context.Context)

type Scheduler struct {
	cron     *cron.Cron
	log      *slog.Logger
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		log:      log,
		inflight: map[string]struct{}{},
	}
}

// Register adds a job on the given cron spec. An empty spec disables the
// job without error.
func (s *Scheduler) Register(name, spec string, job Job) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling. The returned context completes when jobs already
// running have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) run(name string, job Job) {
	s.mu.Lock()
	if _, ok := s.inflight[name]; ok {
		s.mu.Unlock()
		s.log.Warn("maintenance job still running, skipping this tick", "job", name)
		return
	}
	s.inflight[name] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, name)
		s.mu.Unlock()
	}()

	job(context.Background())
}
