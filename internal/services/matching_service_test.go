package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"alize_backend/internal/models"
	"alize_backend/internal/repositories"
)

type matchingFixture struct {
	svc         MatchingService
	userJobRepo repositories.UserJobRepository
	db          *gorm.DB
	user        *models.User
}

func newMatchingFixture(t *testing.T) *matchingFixture {
	t.Helper()
	db := newTestDB(t)
	userJobRepo := repositories.NewUserJobRepository(db)
	return &matchingFixture{
		svc:         NewMatchingService(userJobRepo),
		userJobRepo: userJobRepo,
		db:          db,
		user:        createUser(t, db, "match@test.fr"),
	}
}

func analystPrefs() *models.UserPreference {
	return &models.UserPreference{
		Role:          "data analyst",
		Location:      "Paris",
		MustKeywords:  "sql,power bi",
		AvoidKeywords: "stage",
	}
}

var analystCV = []string{"sql", "python", "analytics"}

func TestScoreStrongMatch(t *testing.T) {
	f := newMatchingFixture(t)
	svc := f.svc
	job := &models.JobListing{
		Title:       "Data Analyst - Paris",
		Company:     "DataCorp",
		Location:    "Paris",
		Description: "Nous cherchons un profil maîtrisant SQL, Power BI et les analytics au quotidien.",
	}
	score, ok := svc.Score(job, analystPrefs(), analystCV)
	require.True(t, ok)
	// base 30 + role exact 20 + location 10 + musts 100% 15 + CV hits
	assert.GreaterOrEqual(t, score, 75)
	assert.LessOrEqual(t, score, 100)
}

func TestScoreAvoidKeywordExcludes(t *testing.T) {
	f := newMatchingFixture(t)
	svc := f.svc
	job := &models.JobListing{
		Title:       "Stage Data Analyst",
		Company:     "DataCorp",
		Location:    "Paris",
		Description: "Stage de six mois, SQL et Power BI.",
	}
	_, ok := svc.Score(job, analystPrefs(), analystCV)
	assert.False(t, ok)
}

func TestScoreAvoidKeywordAccentInsensitive(t *testing.T) {
	f := newMatchingFixture(t)
	svc := f.svc
	pref := analystPrefs()
	pref.AvoidKeywords = "télétravail"
	job := &models.JobListing{
		Title:       "Data Analyst",
		Company:     "DataCorp",
		Description: "Poste en teletravail complet.",
	}
	_, ok := svc.Score(job, pref, nil)
	assert.False(t, ok)
}

func TestScoreSalaryFloorExcludes(t *testing.T) {
	f := newMatchingFixture(t)
	svc := f.svc
	pref := analystPrefs()
	pref.SalaryMin = intp(45000)
	job := &models.JobListing{
		Title:     "Data Analyst",
		Company:   "DataCorp",
		SalaryMin: intp(30000),
	}
	_, ok := svc.Score(job, pref, analystCV)
	assert.False(t, ok)
}

func TestScoreUnknownSalaryNeverExcludes(t *testing.T) {
	f := newMatchingFixture(t)
	svc := f.svc
	pref := analystPrefs()
	pref.SalaryMin = intp(45000)
	job := &models.JobListing{
		Title:   "Data Analyst",
		Company: "DataCorp",
	}
	_, ok := svc.Score(job, pref, analystCV)
	assert.True(t, ok)
}

func TestScoreRangeAndBase(t *testing.T) {
	f := newMatchingFixture(t)
	svc := f.svc

	// no preferences at all: higher base, CV-only matches survive
	noPrefs := &models.UserPreference{}
	job := &models.JobListing{
		Title:       "Développeur Python",
		Company:     "TechCo",
		Description: "Python, SQL et analytics dans une équipe produit motivée et bienveillante.",
	}
	scoreNoPrefs, ok := svc.Score(job, noPrefs, analystCV)
	require.True(t, ok)
	assert.GreaterOrEqual(t, scoreNoPrefs, 50)

	// mismatched explicit preferences push the score down, never below 0
	pref := &models.UserPreference{Role: "comptable", Location: "Lille", MustKeywords: "paie,fiscalite"}
	score, ok := svc.Score(&models.JobListing{Title: "x", Company: "y", Description: "rien"}, pref, nil)
	require.True(t, ok)
	assert.GreaterOrEqual(t, score, 0)
	assert.LessOrEqual(t, score, 100)
}

func TestRoundScoreMonotonic(t *testing.T) {
	f := newMatchingFixture(t)
	svc := f.svc
	prev := 0
	for s := 0; s <= 100; s++ {
		v := svc.RoundScore(s)
		assert.GreaterOrEqual(t, v, prev, "rounding must be monotonic at %d", s)
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 10)
		prev = v
	}
	assert.Equal(t, 0, svc.RoundScore(0))
	assert.Equal(t, 10, svc.RoundScore(100))
}

func TestMatchReasonsBoundedAndConsistent(t *testing.T) {
	f := newMatchingFixture(t)
	svc := f.svc
	job := &models.JobListing{
		Title:       "Data Analyst - Paris",
		Company:     "DataCorp",
		Location:    "Paris",
		Description: "SQL, Power BI, analytics, python.",
	}
	reasons := svc.MatchReasons(job, analystPrefs(), analystCV)
	require.NotEmpty(t, reasons)
	assert.LessOrEqual(t, len(reasons), 4)

	// a job with no matching signal yields no reasons
	empty := svc.MatchReasons(&models.JobListing{Title: "Plombier", Company: "BTP"}, analystPrefs(), nil)
	assert.Empty(t, empty)
}

func TestAttachJobsToUser(t *testing.T) {
	f := newMatchingFixture(t)

	good := createJob(t, f.db, &models.JobListing{
		Title: "Data Analyst", Company: "A", URL: "https://a.fr/1",
		Description: "SQL et Power BI pour une équipe data qui grandit vite sur des sujets variés et exigeants.",
	})
	excluded := createJob(t, f.db, &models.JobListing{
		Title: "Stage Data Analyst", Company: "B", URL: "https://b.fr/1",
		Description: "stage de fin d'études",
	})

	attached, err := f.svc.AttachJobsToUser(f.user.ID, analystPrefs(), analystCV, []*models.JobListing{good, excluded})
	require.NoError(t, err)
	assert.Equal(t, 1, attached)

	row, err := f.userJobRepo.Find(f.user.ID, good.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusNew, row.Status)
	assert.Greater(t, row.Score, 0)

	_, err = f.userJobRepo.Find(f.user.ID, excluded.ID)
	assert.ErrorIs(t, err, repositories.ErrUserJobNotFound)

	// re-matching is a no-op
	attached, err = f.svc.AttachJobsToUser(f.user.ID, analystPrefs(), analystCV, []*models.JobListing{good})
	require.NoError(t, err)
	assert.Equal(t, 0, attached)

	var count int64
	f.db.Model(&models.UserJob{}).Where("user_id = ?", f.user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}
