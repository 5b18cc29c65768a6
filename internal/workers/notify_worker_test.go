package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"alize_backend/internal/models"
	"alize_backend/internal/repositories"
)

// fakeNotifier counts per-user invocations and can block to expose
// concurrency bugs.
type fakeNotifier struct {
	mu      sync.Mutex
	calls   map[string]int
	inUser  map[string]bool
	overlap atomic.Bool
	block   time.Duration
	err     error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: map[string]int{}, inUser: map[string]bool{}}
}

func (n *fakeNotifier) ProcessUser(_ context.Context, user *models.User) error {
	n.mu.Lock()
	if n.inUser[user.ID] {
		n.overlap.Store(true)
	}
	n.inUser[user.ID] = true
	n.calls[user.ID]++
	n.mu.Unlock()

	if n.block > 0 {
		time.Sleep(n.block)
	}

	n.mu.Lock()
	n.inUser[user.ID] = false
	n.mu.Unlock()
	return n.err
}

func (n *fakeNotifier) Unsubscribe(string) error { return nil }

func (n *fakeNotifier) callCount(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[userID]
}

func newWorkerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.CV{}, &models.UserPreference{},
		&models.JobListing{}, &models.UserJob{}, &models.JobSearchRun{},
	))
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, emails ...string) []models.User {
	t.Helper()
	users := make([]models.User, 0, len(emails))
	for _, email := range emails {
		u := models.User{Email: email, NotificationsEnabled: true}
		require.NoError(t, db.Create(&u).Error)
		users = append(users, u)
	}
	return users
}

func TestTickProcessesEveryNotifiableUser(t *testing.T) {
	db := newWorkerDB(t)
	users := seedUsers(t, db, "a@test.fr", "b@test.fr", "c@test.fr")
	muted := seedUsers(t, db, "muted@test.fr")[0]
	require.NoError(t, repositories.NewUserRepository(db).DisableNotifications(muted.ID))

	notify := newFakeNotifier()
	w := NewNotifyWorker(
		repositories.NewUserRepository(db),
		repositories.NewJobRepository(db),
		notify, 60, 2, 0,
	)

	w.tick(context.Background())

	for _, u := range users {
		assert.Equal(t, 1, notify.callCount(u.ID), u.Email)
	}
	assert.Zero(t, notify.callCount(muted.ID), "disabled users never enter a tick")
	assert.False(t, notify.overlap.Load())
}

func TestTickCoalescesOverlap(t *testing.T) {
	db := newWorkerDB(t)
	users := seedUsers(t, db, "a@test.fr")

	notify := newFakeNotifier()
	notify.block = 100 * time.Millisecond
	w := NewNotifyWorker(
		repositories.NewUserRepository(db),
		repositories.NewJobRepository(db),
		notify, 60, 2, 0,
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.tick(context.Background())
	}()
	// wait until the first tick is inside ProcessUser
	require.Eventually(t, func() bool {
		return notify.callCount(users[0].ID) == 1
	}, time.Second, time.Millisecond)

	w.tick(context.Background())
	w.tick(context.Background())
	<-done

	assert.Equal(t, 1, notify.callCount(users[0].ID), "overlapping ticks are skipped, not queued")
}

func TestTickSurvivesUserFailure(t *testing.T) {
	db := newWorkerDB(t)
	users := seedUsers(t, db, "a@test.fr", "b@test.fr")

	notify := newFakeNotifier()
	notify.err = errors.New("delivery exploded")
	w := NewNotifyWorker(
		repositories.NewUserRepository(db),
		repositories.NewJobRepository(db),
		notify, 60, 2, 0,
	)

	w.tick(context.Background())

	for _, u := range users {
		assert.Equal(t, 1, notify.callCount(u.ID), "a failing user must not abort the tick")
	}
}

func TestTickReleasesUserLocks(t *testing.T) {
	db := newWorkerDB(t)
	seedUsers(t, db, "a@test.fr", "b@test.fr")

	notify := newFakeNotifier()
	w := NewNotifyWorker(
		repositories.NewUserRepository(db),
		repositories.NewJobRepository(db),
		notify, 60, 2, 0,
	)

	w.tick(context.Background())
	w.tick(context.Background())

	w.mu.Lock()
	held := len(w.userLocks)
	w.mu.Unlock()
	assert.Zero(t, held, "lock map must not grow as users churn")
	assert.False(t, notify.overlap.Load())
}

func TestTickCleansStaleJobs(t *testing.T) {
	db := newWorkerDB(t)
	seedUsers(t, db, "a@test.fr")

	old := models.JobListing{
		Source: "Adzuna", Title: "Vieille offre", Company: "X", URL: "https://x.fr/1",
	}
	old.CreatedAt = time.Now().Add(-60 * 24 * time.Hour)
	require.NoError(t, db.Create(&old).Error)
	fresh := models.JobListing{Source: "Adzuna", Title: "Récente", Company: "X", URL: "https://x.fr/2"}
	require.NoError(t, db.Create(&fresh).Error)

	w := NewNotifyWorker(
		repositories.NewUserRepository(db),
		repositories.NewJobRepository(db),
		newFakeNotifier(), 60, 2, 30,
	)

	w.tick(context.Background())

	var count int64
	db.Model(&models.JobListing{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestWorkerDefaults(t *testing.T) {
	w := NewNotifyWorker(nil, nil, newFakeNotifier(), 0, 0, 0)
	assert.Equal(t, "@every 60m", w.spec)
}
