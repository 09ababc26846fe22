package scheduler

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Task is a scheduled job that can be cancelled before it fires.
type Task interface {
	Cancel()
}

// Scheduler runs delayed one-shot tasks and periodic jobs on a gocron scheduler.
type Scheduler struct {
	// gocron's builder chain is not safe for concurrent use.
	mu        sync.Mutex
	scheduler *gocron.Scheduler
}

// New creates a new Scheduler. Call Start before expecting jobs to run.
func New() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{scheduler: s}
}

// Start starts the underlying scheduler in the background.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// AfterFunc runs fn once, delay from now. The returned Task removes the job
// if it has not fired yet.
func (s *Scheduler) AfterFunc(delay time.Duration, fn func()) (Task, error) {
	if delay <= 0 {
		return nil, errors.New("scheduler: delay must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.scheduler.Every(delay).WaitForSchedule().LimitRunsTo(1).Do(fn)
	if err != nil {
		return nil, err
	}
	return &jobTask{owner: s, job: job}, nil
}

// Every runs fn every interval, starting one interval from now. Runs never overlap.
func (s *Scheduler) Every(interval time.Duration, name string, fn func()) error {
	if interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.scheduler.Every(interval).WaitForSchedule().SingletonMode().Do(func() {
		log.Printf("DEBUG: scheduler: running %s job", name)
		fn()
	})
	return err
}

type jobTask struct {
	once  sync.Once
	owner *Scheduler
	job   *gocron.Job
}

func (t *jobTask) Cancel() {
	t.once.Do(func() {
		t.owner.mu.Lock()
		defer t.owner.mu.Unlock()
		t.owner.scheduler.RemoveByReference(t.job)
	})
}
