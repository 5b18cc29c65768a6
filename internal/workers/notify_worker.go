package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"

	"alize_backend/internal/logger"
	"alize_backend/internal/models"
	"alize_backend/internal/repositories"
	"alize_backend/internal/services"
)

// NotifyWorker drives the periodic search-and-digest cycle. One cron
// tick fans the notifiable users out on a bounded pool; correctness
// rests on the per-user cooldown, the tick interval only bounds
// latency. Overlapping ticks are coalesced, and a per-user lock keeps
// two workers off the same user.
type NotifyWorker struct {
	userRepo repositories.UserRepository
	jobRepo  repositories.JobRepository
	notify   services.NotificationService

	cron     *cron.Cron
	spec     string
	pool     *semaphore.Weighted
	running  atomic.Bool
	staleAge time.Duration

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewNotifyWorker(
	userRepo repositories.UserRepository,
	jobRepo repositories.JobRepository,
	notify services.NotificationService,
	tickMinutes, workerCount, staleJobDays int,
) *NotifyWorker {
	if tickMinutes <= 0 {
		tickMinutes = 60
	}
	if workerCount <= 0 {
		workerCount = 4
	}
	return &NotifyWorker{
		userRepo:  userRepo,
		jobRepo:   jobRepo,
		notify:    notify,
		cron:      cron.New(),
		spec:      fmt.Sprintf("@every %dm", tickMinutes),
		pool:      semaphore.NewWeighted(int64(workerCount)),
		staleAge:  time.Duration(staleJobDays) * 24 * time.Hour,
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (w *NotifyWorker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.spec, func() {
		w.tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	w.cron.Start()
	logger.Info("notify worker started", "spec", w.spec)

	// First pass without waiting for the first tick.
	go w.tick(ctx)
	return nil
}

func (w *NotifyWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	logger.Info("notify worker stopped")
}

func (w *NotifyWorker) tick(ctx context.Context) {
	// A tick that outlives the interval is skipped, not queued.
	if !w.running.CompareAndSwap(false, true) {
		logger.Warn("previous notify tick still running, skipping")
		return
	}
	defer w.running.Store(false)

	start := time.Now()
	users, err := w.userRepo.FindNotifiable()
	if err != nil {
		// Persistence outage: abort this tick, retry on the next.
		logger.WorkerLog("notify", "load users", err)
		return
	}
	if len(users) == 0 {
		logger.Debug("no users with notifications enabled")
		return
	}
	logger.Info("notify tick started", "users", len(users))

	var wg sync.WaitGroup
	for i := range users {
		user := users[i]
		if err := w.pool.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer w.pool.Release(1)
			w.processUser(ctx, &user)
		}()
	}
	wg.Wait()
	w.releaseUserLocks()

	w.cleanupStaleJobs()
	logger.Info("notify tick finished", "users", len(users), "duration", time.Since(start))
}

func (w *NotifyWorker) processUser(ctx context.Context, user *models.User) {
	lock := w.lockFor(user.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := w.notify.ProcessUser(ctx, user); err != nil {
		// One user's failure never aborts the tick.
		logger.WorkerLog("notify", "process user "+user.ID, err)
	}
}

func (w *NotifyWorker) lockFor(userID string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	lock, ok := w.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		w.userLocks[userID] = lock
	}
	return lock
}

// releaseUserLocks drops the per-user lock map. Safe once every worker
// of the tick has joined: ticks never overlap, so no lock is held, and
// the map cannot grow without bound as users churn.
func (w *NotifyWorker) releaseUserLocks() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.userLocks = make(map[string]*sync.Mutex)
}

// cleanupStaleJobs drops listings past the retention age unless some
// user saved them.
func (w *NotifyWorker) cleanupStaleJobs() {
	if w.staleAge <= 0 {
		return
	}
	removed, err := w.jobRepo.DeleteStale(time.Now().Add(-w.staleAge))
	if err != nil {
		logger.WorkerLog("notify", "stale job cleanup", err)
		return
	}
	if removed > 0 {
		logger.Info("removed stale listings", "count", removed)
	}
}
