package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"alize_backend/internal/models"
	"alize_backend/internal/providers"
	"alize_backend/internal/repositories"
)

// fakeProvider replays canned listings and counts calls.
type fakeProvider struct {
	name     string
	listings []providers.Listing
	err      error
	calls    int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Search(_ context.Context, _, _ string) ([]providers.Listing, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.listings, nil
}

type searchFixture struct {
	svc       SearchService
	db        *gorm.DB
	prefRepo  repositories.PreferenceRepository
	cvRepo    repositories.CVRepository
	runRepo   repositories.SearchRunRepository
	jobRepo   repositories.JobRepository
	ujRepo    repositories.UserJobRepository
	providers []*fakeProvider
	user      *models.User
}

func newSearchFixture(t *testing.T, fakes ...*fakeProvider) *searchFixture {
	t.Helper()
	db := newTestDB(t)
	prefRepo := repositories.NewPreferenceRepository(db)
	cvRepo := repositories.NewCVRepository(db)
	runRepo := repositories.NewSearchRunRepository(db)
	jobRepo := repositories.NewJobRepository(db)
	ujRepo := repositories.NewUserJobRepository(db)

	sources := make([]providers.Provider, 0, len(fakes))
	for _, f := range fakes {
		sources = append(sources, f)
	}
	svc := NewSearchService(
		prefRepo, cvRepo, runRepo, ujRepo,
		NewIngestService(jobRepo),
		NewMatchingService(ujRepo),
		sources,
	)
	return &searchFixture{
		svc:       svc,
		db:        db,
		prefRepo:  prefRepo,
		cvRepo:    cvRepo,
		runRepo:   runRepo,
		jobRepo:   jobRepo,
		ujRepo:    ujRepo,
		providers: fakes,
		user:      createUser(t, db, "search@test.fr"),
	}
}

func (f *searchFixture) savePrefs(t *testing.T, pref *models.UserPreference) *models.UserPreference {
	t.Helper()
	pref.UserID = f.user.ID
	if pref.NotificationFrequency == "" {
		pref.NotificationFrequency = models.FrequencyEvery3Days
	}
	if pref.MaxJobs == 0 {
		pref.MaxJobs = models.DefaultMaxDigestJobs
	}
	require.NoError(t, f.db.Create(pref).Error)
	return pref
}

func (f *searchFixture) uploadCV(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, f.cvRepo.Create(&models.CV{
		UserID:   f.user.ID,
		Filename: "cv.pdf",
		Text:     text,
	}))
}

func analystListing(n int) providers.Listing {
	return providers.Listing{
		Source:      "Adzuna",
		Title:       "Data Analyst",
		Company:     fmt.Sprintf("Entreprise %d", n),
		Location:    "Paris",
		URL:         fmt.Sprintf("https://jobs.example.fr/offre/%d", n),
		Description: "Analyse de données avec SQL et Power BI au sein d'une équipe produit ambitieuse et bienveillante.",
	}
}

func TestBuildQueries(t *testing.T) {
	tests := []struct {
		name     string
		roles    []string
		must     []string
		top      []string
		location string
		want     []string
	}{
		{
			name:  "role with musts and keywords",
			roles: []string{"data analyst"},
			must:  []string{"sql", "power bi", "excel"},
			top:   []string{"python", "tableau"},
			want: []string{
				"data analyst",
				"data analyst sql power bi",
				"data analyst python",
				"data analyst tableau",
			},
		},
		{
			name:     "location suffixes every query",
			roles:    []string{"data analyst"},
			top:      []string{"sql"},
			location: "Lyon",
			want:     []string{"data analyst Lyon", "data analyst sql Lyon"},
		},
		{
			name: "keywords only fallback",
			top:  []string{"python", "django", "api"},
			want: []string{"python django", "python", "django", "api"},
		},
		{
			name: "corrupt string tokens filtered",
			top:  []string{"sql", "string polluted"},
			want: []string{"sql"},
		},
		{
			name: "empty profile yields nothing",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildQueries(tt.roles, tt.must, tt.top, tt.location)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), maxBuiltQueries)
		})
	}
}

func TestSearchRunsPipelineEndToEnd(t *testing.T) {
	src := &fakeProvider{name: "adzuna", listings: []providers.Listing{analystListing(1), analystListing(2)}}
	f := newSearchFixture(t, src)
	pref := f.savePrefs(t, &models.UserPreference{Role: "data analyst", MustKeywords: "sql"})

	summary, err := f.svc.SearchJobsForUser(context.Background(), f.user.ID, pref, false)
	require.NoError(t, err)

	assert.True(t, summary.Ran)
	assert.Empty(t, summary.SkipCause)
	assert.NotEmpty(t, summary.Queries)
	assert.LessOrEqual(t, len(summary.Queries), maxSearchQueries)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 2, summary.Attached)
	assert.Equal(t, 2, summary.BySource["Adzuna"])
	assert.Greater(t, src.calls, 0)

	// the run is recorded and the cooldown clock advanced
	run, err := f.runRepo.FindLatest(f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 2, run.Inserted)

	stored, err := f.prefRepo.Find(f.user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastSearchAt)
}

func TestSearchSkipsWhenProfileUnchanged(t *testing.T) {
	src := &fakeProvider{name: "adzuna", listings: []providers.Listing{analystListing(1)}}
	f := newSearchFixture(t, src)
	pref := f.savePrefs(t, &models.UserPreference{Role: "data analyst"})

	first, err := f.svc.SearchJobsForUser(context.Background(), f.user.ID, pref, false)
	require.NoError(t, err)
	assert.True(t, first.Ran)
	callsAfterFirst := src.calls

	second, err := f.svc.SearchJobsForUser(context.Background(), f.user.ID, pref, false)
	require.NoError(t, err)
	assert.False(t, second.Ran)
	assert.NotEmpty(t, second.SkipCause)
	assert.Equal(t, callsAfterFirst, src.calls, "skipped cycle must not touch providers")

	// a skipped cycle still records a run so the cooldown does not spin
	var runs int64
	f.db.Model(&models.JobSearchRun{}).Where("user_id = ?", f.user.ID).Count(&runs)
	assert.EqualValues(t, 2, runs)
}

func TestSearchForcedIgnoresUnchangedProfile(t *testing.T) {
	src := &fakeProvider{name: "adzuna", listings: []providers.Listing{analystListing(1)}}
	f := newSearchFixture(t, src)
	pref := f.savePrefs(t, &models.UserPreference{Role: "data analyst"})

	_, err := f.svc.SearchJobsForUser(context.Background(), f.user.ID, pref, false)
	require.NoError(t, err)

	forced, err := f.svc.SearchJobsForUser(context.Background(), f.user.ID, pref, true)
	require.NoError(t, err)
	assert.True(t, forced.Ran)
}

func TestSearchNewCVReenablesCycle(t *testing.T) {
	src := &fakeProvider{name: "adzuna", listings: []providers.Listing{analystListing(1)}}
	f := newSearchFixture(t, src)
	pref := f.savePrefs(t, &models.UserPreference{Role: "data analyst"})

	_, err := f.svc.SearchJobsForUser(context.Background(), f.user.ID, pref, false)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	f.uploadCV(t, "Data analyst avec cinq ans d'expérience en SQL, Python et Power BI sur des projets data variés.")

	again, err := f.svc.SearchJobsForUser(context.Background(), f.user.ID, pref, false)
	require.NoError(t, err)
	assert.True(t, again.Ran, "a newer CV invalidates the unchanged-profile skip")
}

func TestSearchProviderFailureIsIsolated(t *testing.T) {
	broken := &fakeProvider{name: "francetravail", err: errors.New("oauth down")}
	healthy := &fakeProvider{name: "adzuna", listings: []providers.Listing{analystListing(1)}}
	f := newSearchFixture(t, broken, healthy)
	pref := f.savePrefs(t, &models.UserPreference{Role: "data analyst"})

	summary, err := f.svc.SearchJobsForUser(context.Background(), f.user.ID, pref, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Attached)
	assert.Greater(t, broken.calls, 0)
}

func TestSearchDeduplicatesAcrossQueries(t *testing.T) {
	// the same listing comes back for every query; it must attach once
	src := &fakeProvider{name: "adzuna", listings: []providers.Listing{analystListing(1)}}
	f := newSearchFixture(t, src)
	pref := f.savePrefs(t, &models.UserPreference{Role: "data analyst", MustKeywords: "sql,power bi"})

	summary, err := f.svc.SearchJobsForUser(context.Background(), f.user.ID, pref, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Attached)

	var jobs int64
	f.db.Model(&models.JobListing{}).Count(&jobs)
	assert.EqualValues(t, 1, jobs)
}

func TestRunNowReturnsDigestSelection(t *testing.T) {
	src := &fakeProvider{name: "adzuna", listings: []providers.Listing{
		analystListing(1), analystListing(2), analystListing(3),
	}}
	f := newSearchFixture(t, src)
	f.savePrefs(t, &models.UserPreference{Role: "data analyst", MustKeywords: "sql"})

	summary, err := f.svc.RunNow(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.True(t, summary.Ran)
	require.Len(t, summary.Digest, 3)
	for _, job := range summary.Digest {
		assert.NotEmpty(t, job.Title)
		assert.GreaterOrEqual(t, job.Score, 0)
		assert.LessOrEqual(t, job.Score, 10)
		assert.True(t, job.IsNew)
	}
}
