package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/autoqliq/autoqliq/internal/driver"
	"github.com/autoqliq/autoqliq/internal/runner"
	"github.com/autoqliq/autoqliq/pkg/logger"
	"github.com/autoqliq/autoqliq/pkg/metrics"
	"github.com/autoqliq/autoqliq/pkg/ratelimit"
)

// LeaderConfig enables distributed coordination across more than one
// Scheduler instance sharing a Redis deployment, so only one instance
// dispatches a given job's fires. A nil RedisClient makes this instance
// always the leader — the common single-process case needs nothing more
// than the in-memory registry below.
//
// FireRateLimit/FireRateWindow, when both set alongside RedisClient, cap
// how many job fires start across the whole cluster per window — every
// Scheduler instance shares the same Redis-backed counter, so the limit
// holds cluster-wide rather than per-process.
type LeaderConfig struct {
	RedisClient    *redis.Client
	LockKey        string
	TTL            time.Duration
	FireRateLimit  int
	FireRateWindow time.Duration
}

// Scheduler owns the job registry and the underlying cron engine. It
// guarantees at most one concurrent execution per job id: a job whose
// previous fire is still running is skipped, never queued or run
// overlapping itself.
type Scheduler struct {
	mu        sync.Mutex
	run       *runner.Runner
	cronEng   *cron.Cron
	jobs      map[string]*jobState
	log       logger.Logger
	leader    LeaderConfig
	isLeader  atomic.Bool
	leaderID  string
	stopCh    chan struct{}
	fireLimit ratelimit.RateLimiter
}

type jobState struct {
	mu        sync.Mutex
	job       Job
	opts      driver.Options
	entryID   cron.EntryID
	stopTimer func()
	running   bool
	// nextRun recomputes NextRunAt for a recurring trigger after each fire,
	// relative to now. nil for a one-shot TriggerDate job, which fires once
	// and is never rescheduled.
	nextRun func(now time.Time) time.Time
}

func New(run *runner.Runner, leader LeaderConfig, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	if leader.LockKey == "" {
		leader.LockKey = "autoqliq:scheduler:leader"
	}
	if leader.TTL <= 0 {
		leader.TTL = 10 * time.Second
	}
	s := &Scheduler{
		run:      run,
		cronEng:  cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		jobs:     make(map[string]*jobState),
		log:      log,
		leader:   leader,
		leaderID: uuid.NewString(),
		stopCh:   make(chan struct{}),
	}
	if leader.RedisClient == nil {
		s.isLeader.Store(true)
	}
	if leader.RedisClient != nil && leader.FireRateLimit > 0 && leader.FireRateWindow > 0 {
		s.fireLimit = ratelimit.NewRedisRateLimiter(leader.RedisClient, leader.FireRateLimit, leader.FireRateWindow)
	}
	return s
}

// Start begins dispatching cron-triggered fires and, if a Redis leader lock
// is configured, begins the leader-election loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cronEng.Start()
	if s.leader.RedisClient != nil {
		go s.runLeaderElection(ctx)
	}
	return nil
}

// Stop halts the cron engine and every interval/date timer. In-flight runs
// are left to finish on their own — Stop does not cancel running
// workflows.
func (s *Scheduler) Stop(ctx context.Context) error {
	close(s.stopCh)
	stopCtx := s.cronEng.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.jobs {
		if st.stopTimer != nil {
			st.stopTimer()
		}
	}
	return nil
}

// Schedule registers a new job and returns the id it was assigned (or the
// caller-provided id, if non-empty).
func (s *Scheduler) Schedule(id, workflowName string, trig Trigger, opts driver.Options) (Job, error) {
	if id == "" {
		id = uuid.NewString()
	}
	job := Job{ID: id, WorkflowName: workflowName, Trigger: trig, Status: StatusScheduled}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[id]; exists {
		return Job{}, fmt.Errorf("scheduler: job %q already scheduled", id)
	}
	st := &jobState{job: job, opts: opts}

	switch trig.Kind {
	case TriggerCron:
		schedule, err := cron.ParseStandard(trig.Cron)
		if err != nil {
			// fall back to the 6-field (with-seconds) parser the engine uses
			schedule, err = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(trig.Cron)
			if err != nil {
				return Job{}, fmt.Errorf("scheduler: invalid cron expression %q: %w", trig.Cron, err)
			}
		}
		st.job.NextRunAt = schedule.Next(time.Now().UTC())
		st.nextRun = func(now time.Time) time.Time { return schedule.Next(now) }
		entryID := s.cronEng.Schedule(schedule, cron.FuncJob(func() { s.fire(id) }))
		st.entryID = entryID
	case TriggerInterval:
		if trig.Interval <= 0 {
			return Job{}, fmt.Errorf("scheduler: interval trigger requires a positive interval")
		}
		st.job.NextRunAt = time.Now().UTC().Add(trig.Interval)
		st.nextRun = func(now time.Time) time.Time { return now.Add(trig.Interval) }
		ticker := time.NewTicker(trig.Interval)
		done := make(chan struct{})
		st.stopTimer = func() { ticker.Stop(); close(done) }
		go func() {
			for {
				select {
				case <-ticker.C:
					s.fire(id)
				case <-done:
					return
				case <-s.stopCh:
					return
				}
			}
		}()
	case TriggerDate:
		delay := time.Until(trig.At)
		if delay < 0 {
			return Job{}, fmt.Errorf("scheduler: date trigger %s is in the past", trig.At)
		}
		st.job.NextRunAt = trig.At.UTC()
		timer := time.AfterFunc(delay, func() { s.fire(id) })
		st.stopTimer = func() { timer.Stop() }
	default:
		return Job{}, fmt.Errorf("scheduler: unknown trigger kind %q", trig.Kind)
	}

	s.jobs[id] = st
	return st.job, nil
}

// ListJobs returns a point-in-time snapshot of every registered job; it is
// safe to read while the scheduler keeps firing jobs concurrently.
func (s *Scheduler) ListJobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for _, st := range s.jobs {
		st.mu.Lock()
		out = append(out, st.job)
		st.mu.Unlock()
	}
	return out
}

// Cancel removes a job from the registry, stopping any future fires. A
// fire already in flight is left to finish.
func (s *Scheduler) Cancel(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.jobs[id]
	if !ok {
		return false, nil
	}
	if st.entryID != 0 {
		s.cronEng.Remove(st.entryID)
	}
	if st.stopTimer != nil {
		st.stopTimer()
	}
	st.mu.Lock()
	st.job.Status = StatusCancelled
	st.mu.Unlock()
	delete(s.jobs, id)
	return true, nil
}

// fire is invoked by the cron engine, a ticker, or a one-shot timer. It
// enforces three invariants in order: only the leader dispatches, a job
// already running is skipped rather than overlapped, and a late fire is
// skipped rather than caught up.
func (s *Scheduler) fire(id string) {
	if !s.isLeader.Load() {
		return
	}
	s.mu.Lock()
	st, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	scheduledAt := st.job.NextRunAt
	if st.running {
		st.mu.Unlock()
		metrics.RecordJobFire(id, "skipped_already_running")
		return
	}
	if !scheduledAt.IsZero() && time.Since(scheduledAt) > misfireGrace {
		st.mu.Unlock()
		s.log.Warn("scheduled job fire arrived too late, skipping", "job_id", id, "scheduled_at", scheduledAt)
		metrics.RecordJobMisfire(id)
		return
	}
	st.running = true
	st.job.Status = StatusRunning
	workflowName := st.job.WorkflowName
	opts := st.opts
	// Recompute NextRunAt relative to now, not the fire that just happened,
	// so a recurring job's scheduled time never falls behind wall-clock
	// time: leaving it at the value set by Schedule (or the prior fire)
	// would make every fire after the first look later than misfireGrace
	// allows, eventually skipping every on-time fire as a "late" one.
	if st.nextRun != nil {
		st.job.NextRunAt = st.nextRun(time.Now().UTC())
	}
	st.mu.Unlock()

	if s.fireLimit != nil {
		allowed, err := s.fireLimit.Allow(context.Background(), "scheduler:fire")
		if err != nil {
			s.log.Error("scheduler fire rate limiter check failed, allowing fire", "job_id", id, "error", err)
		} else if !allowed {
			s.completeFire(st, time.Now().UTC(), "throttled")
			s.log.Warn("job fire throttled by cluster-wide rate limit", "job_id", id)
			metrics.RecordJobFire(id, "throttled")
			return
		}
	}

	metrics.RecordJobFire(id, "started")
	h, err := s.run.Run(context.Background(), workflowName, opts)
	if err != nil {
		s.completeFire(st, time.Now().UTC(), "failed_to_start")
		s.log.Error("scheduled job failed to start", "job_id", id, "error", err)
		return
	}
	go func() {
		log, waitErr := h.Wait(context.Background())
		status := string(log.Status)
		if waitErr != nil {
			status = "error"
		}
		s.completeFire(st, time.Now().UTC(), status)
	}()
}

func (s *Scheduler) completeFire(st *jobState, finishedAt time.Time, status string) {
	st.mu.Lock()
	st.running = false
	st.job.Status = StatusScheduled
	st.job.LastRunAt = finishedAt
	st.job.LastStatus = status
	st.mu.Unlock()
}

func (s *Scheduler) runLeaderElection(ctx context.Context) {
	ticker := time.NewTicker(s.leader.TTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tryBecomeLeader(ctx)
		}
	}
}

func (s *Scheduler) tryBecomeLeader(ctx context.Context) {
	ok, err := s.leader.RedisClient.SetNX(ctx, s.leader.LockKey, s.leaderID, s.leader.TTL).Result()
	if err != nil {
		s.log.Error("scheduler leader election failed", "error", err)
		return
	}
	if ok {
		if !s.isLeader.Swap(true) {
			s.log.Info("became scheduler leader", "leader_id", s.leaderID)
		}
		return
	}
	current, err := s.leader.RedisClient.Get(ctx, s.leader.LockKey).Result()
	if err == nil && current == s.leaderID {
		s.leader.RedisClient.Expire(ctx, s.leader.LockKey, s.leader.TTL)
		s.isLeader.Store(true)
		return
	}
	if s.isLeader.Swap(false) {
		s.log.Warn("lost scheduler leadership", "leader_id", s.leaderID)
	}
}
