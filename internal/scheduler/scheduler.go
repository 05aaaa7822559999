// Package scheduler runs recurring background tasks such as the expiry sweep.
package scheduler

import (
	"context"
	"log"
	"time"
)

type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to Task.
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (t TaskFunc) Name() string                  { return t.TaskName }
func (t TaskFunc) Run(ctx context.Context) error { return t.Fn(ctx) }

// Ticker is the part of time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

type Scheduler struct {
	task      Task
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	runFirst  bool
}

type Option func(*Scheduler)

// WithTicker replaces the wall-clock ticker.
func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(s *Scheduler) {
		s.newTicker = fn
	}
}

// WithImmediateRun runs the task once before the first tick.
func WithImmediateRun() Option {
	return func(s *Scheduler) {
		s.runFirst = true
	}
}

func New(task Task, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	s := &Scheduler{
		task:     task,
		interval: interval,
		newTicker: func(d time.Duration) Ticker {
			return realTicker{t: time.NewTicker(d)}
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start blocks until ctx is cancelled. A failing run is logged and the
// schedule goes on.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := s.newTicker(s.interval)
	defer ticker.Stop()

	log.Printf("scheduler: %s every %s", s.task.Name(), s.interval)
	if s.runFirst {
		s.runOnce(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler: %s stopped", s.task.Name())
			return
		case <-ticker.C():
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.task.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("scheduler: %s failed: %v", s.task.Name(), err)
	}
}
