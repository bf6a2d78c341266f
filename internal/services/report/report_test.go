package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetMonthlyReport(ctx context.Context, username string, mon time.Month, year int) (*models.Report, error) {
	args := m.Called(ctx, username, mon, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockRepository) GetYearlyReport(ctx context.Context, username string, year int) (*models.Report, error) {
	args := m.Called(ctx, username, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockRepository) ListMonthlyReports(ctx context.Context, username string, year int) ([]*models.Report, error) {
	args := m.Called(ctx, username, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Report), args.Error(1)
}

func (m *MockRepository) SaveReport(ctx context.Context, r *models.Report) (bool, error) {
	args := m.Called(ctx, r)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) NextID(ctx context.Context, kind models.EntityKind) (string, error) {
	args := m.Called(ctx, kind)
	return args.String(0), args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderMonthly(ctx context.Context, p models.MonthlyPayload) ([]byte, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) RenderYearly(ctx context.Context, p models.YearlyPayload) ([]byte, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) ContentType() string { return "application/pdf" }

func (m *MockRenderer) Extension() string { return "pdf" }

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendReport(ctx context.Context, email models.ReportEmail) error {
	return m.Called(ctx, email).Error(0)
}

var generatedAt = time.Date(2026, time.October, 1, 6, 0, 0, 0, time.UTC)

func newTestService(repo *MockRepository, r *MockRenderer, mailer *MockMailer) *Service {
	s := NewService(repo, r, mailer, "$", sl.Discard())
	s.now = func() time.Time { return generatedAt }
	return s
}

func monthlySub(id, name string, price float64, active bool) *models.Subscription {
	return &models.Subscription{
		ID: id, Username: "alice", ServiceName: name, Price: price, Active: active,
		BillingFrequency: models.FrequencyMonthly, RenewalDate: models.RenewalDate{Day: 1},
	}
}

// scenarioUser пользователь с бюджетом 100.00 и пятью ежемесячными подписками,
// одна из которых отменена.
func scenarioUser(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{Username: "alice", Email: "alice@example.com"}
	for _, s := range []*models.Subscription{
		monthlySub("sub01", "Netflix", 17.99, true),
		monthlySub("sub02", "Drive", 1.99, true),
		monthlySub("sub03", "Adobe", 54.99, false),
		monthlySub("sub04", "Xbox", 14.99, true),
		monthlySub("sub05", "NYT", 4.00, true),
	} {
		require.NoError(t, u.AddSubscription(s))
	}
	b, err := models.NewBudget("bud01", "alice", "100.00", u)
	require.NoError(t, err)
	u.AttachBudget(b)
	return u
}

func TestBuildMonthlyPayload(t *testing.T) {
	u := scenarioUser(t)
	require.NoError(t, u.AddSubscription(&models.Subscription{
		ID: "sub06", Username: "alice", ServiceName: "Prime", Price: 120.00, Active: true,
		BillingFrequency: models.FrequencyYearly, RenewalDate: models.RenewalDate{Day: 15, Month: time.June},
	}))

	p := BuildMonthlyPayload(u, time.September, 2026, generatedAt, "$")

	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "September 2026", p.Period)
	assert.Equal(t, []models.LineItem{
		{Name: "Netflix", Price: 17.99},
		{Name: "Drive", Price: 1.99},
		{Name: "Xbox", Price: 14.99},
		{Name: "NYT", Price: 4.00},
		{Name: "Prime", Price: 10.00},
	}, p.Subscriptions)
	assert.Equal(t, 54.99, p.CancelledTotal)
	assert.Equal(t, 103.96, p.GrandTotal)
	assert.Equal(t, 100.00, p.Budget)
	assert.Contains(t, p.Note, "Over budget")
	assert.Contains(t, p.Note, "$103.96")
}

func TestBuildMonthlyPayload_WithinAndNoBudget(t *testing.T) {
	u := scenarioUser(t)
	p := BuildMonthlyPayload(u, time.September, 2026, generatedAt, "$")
	assert.Equal(t, 93.96, p.GrandTotal)
	assert.Contains(t, p.Note, "Within budget")

	u.AttachBudget(nil)
	p = BuildMonthlyPayload(u, time.September, 2026, generatedAt, "$")
	assert.Zero(t, p.Budget)
	assert.Equal(t, NoBudgetNote, p.Note)
}

func TestEnsureMonthlyReport_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	renderer := new(MockRenderer)
	mailer := new(MockMailer)
	svc := newTestService(repo, renderer, mailer)
	user := scenarioUser(t)
	today := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)

	var saved *models.Report
	repo.On("GetMonthlyReport", ctx, "alice", time.September, 2026).Return(nil, nil).Once()
	renderer.On("RenderMonthly", ctx, mock.MatchedBy(func(p models.MonthlyPayload) bool {
		return p.Period == "September 2026" && p.GrandTotal == 93.96 && p.GeneratedAt.Equal(generatedAt)
	})).Return([]byte("%PDF-1.3"), nil).Once()
	mailer.On("SendReport", ctx, mock.MatchedBy(func(e models.ReportEmail) bool {
		return e.To == "alice@example.com" &&
			e.Filename == "alice_monthly_2026_09.pdf" &&
			e.ContentType == "application/pdf" &&
			e.Subject == "Subscription report for September 2026" &&
			string(e.Document) == "%PDF-1.3"
	})).Return(nil).Once()
	repo.On("NextID", ctx, models.KindMonthlyReport).Return("mntrpt01", nil).Once()
	repo.On("SaveReport", ctx, mock.AnythingOfType("*models.Report")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.Report) }).
		Return(true, nil).Once()

	generated, err := svc.EnsureMonthlyReport(ctx, user, today)
	require.NoError(t, err)
	assert.True(t, generated)
	require.NotNil(t, saved)
	assert.Equal(t, "mntrpt01", saved.ID)
	assert.Equal(t, time.September, saved.Month)
	assert.Equal(t, 93.96, saved.TotalAmount)
	assert.Equal(t, []byte("%PDF-1.3"), saved.Data)

	repo.On("GetMonthlyReport", ctx, "alice", time.September, 2026).Return(saved, nil).Once()
	generated, err = svc.EnsureMonthlyReport(ctx, user, today)
	require.NoError(t, err)
	assert.False(t, generated)

	renderer.AssertNumberOfCalls(t, "RenderMonthly", 1)
	mailer.AssertNumberOfCalls(t, "SendReport", 1)
	repo.AssertNumberOfCalls(t, "SaveReport", 1)
	repo.AssertExpectations(t)
}

func TestEnsureMonthlyReport_JanuaryTargetsDecember(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo, new(MockRenderer), new(MockMailer))

	existing := &models.Report{ID: "mntrpt07", Kind: models.ReportMonthly}
	repo.On("GetMonthlyReport", ctx, "alice", time.December, 2025).Return(existing, nil).Once()

	generated, err := svc.EnsureMonthlyReport(ctx, scenarioUser(t), time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, generated)
	repo.AssertExpectations(t)
}

func TestEnsureMonthlyReport_Failures(t *testing.T) {
	today := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMocks func(repo *MockRepository, r *MockRenderer, m *MockMailer)
		wantErr    error
	}{
		{
			name: "render failure",
			setupMocks: func(repo *MockRepository, r *MockRenderer, _ *MockMailer) {
				repo.On("GetMonthlyReport", mock.Anything, "alice", time.September, 2026).Return(nil, nil)
				r.On("RenderMonthly", mock.Anything, mock.Anything).Return(nil, errors.New("font missing")).Once()
			},
			wantErr: models.ErrExternalService,
		},
		{
			name: "email failure",
			setupMocks: func(repo *MockRepository, r *MockRenderer, m *MockMailer) {
				repo.On("GetMonthlyReport", mock.Anything, "alice", time.September, 2026).Return(nil, nil)
				r.On("RenderMonthly", mock.Anything, mock.Anything).Return([]byte("doc"), nil).Once()
				m.On("SendReport", mock.Anything, mock.Anything).Return(errors.New("smtp timeout")).Once()
			},
			wantErr: models.ErrExternalService,
		},
		{
			name: "storage failure on lookup",
			setupMocks: func(repo *MockRepository, _ *MockRenderer, _ *MockMailer) {
				repo.On("GetMonthlyReport", mock.Anything, "alice", time.September, 2026).Return(nil, errors.New("connection refused")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			renderer := new(MockRenderer)
			mailer := new(MockMailer)
			tt.setupMocks(repo, renderer, mailer)

			generated, err := newTestService(repo, renderer, mailer).EnsureMonthlyReport(context.Background(), scenarioUser(t), today)
			require.Error(t, err)
			assert.False(t, generated)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			repo.AssertNotCalled(t, "SaveReport", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "NextID", mock.Anything, mock.Anything)
		})
	}
}

func TestEnsureMonthlyReport_LostRace(t *testing.T) {
	repo := new(MockRepository)
	renderer := new(MockRenderer)
	mailer := new(MockMailer)

	repo.On("GetMonthlyReport", mock.Anything, "alice", time.September, 2026).Return(nil, nil).Once()
	renderer.On("RenderMonthly", mock.Anything, mock.Anything).Return([]byte("doc"), nil).Once()
	mailer.On("SendReport", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("NextID", mock.Anything, models.KindMonthlyReport).Return("mntrpt02", nil).Once()
	repo.On("SaveReport", mock.Anything, mock.Anything).Return(false, nil).Once()

	generated, err := newTestService(repo, renderer, mailer).
		EnsureMonthlyReport(context.Background(), scenarioUser(t), time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, generated)
}

func monthlyReports(t *testing.T, year int, totals map[time.Month]float64) []*models.Report {
	t.Helper()
	var out []*models.Report
	for m := time.January; m <= time.December; m++ {
		total, ok := totals[m]
		if !ok {
			continue
		}
		r, err := models.NewMonthlyReport(models.FormatID(models.KindMonthlyReport, int(m)), "alice", m.String(), year, total, generatedAt)
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

func TestEnsureYearlyReport(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)

	t.Run("full year", func(t *testing.T) {
		repo := new(MockRepository)
		renderer := new(MockRenderer)
		mailer := new(MockMailer)

		totals := map[time.Month]float64{}
		for m := time.January; m <= time.December; m++ {
			totals[m] = 10.50
		}
		repo.On("GetYearlyReport", ctx, "alice", 2025).Return(nil, nil).Once()
		repo.On("ListMonthlyReports", ctx, "alice", 2025).Return(monthlyReports(t, 2025, totals), nil).Once()
		renderer.On("RenderYearly", ctx, mock.MatchedBy(func(p models.YearlyPayload) bool {
			return p.Year == 2025 && p.GrandTotal == 126.00 && !p.Incomplete &&
				len(p.MonthlyReports) == 12 && p.YearlyBudgetAmount == 1200.00
		})).Return([]byte("doc"), nil).Once()
		mailer.On("SendReport", ctx, mock.MatchedBy(func(e models.ReportEmail) bool {
			return e.Filename == "alice_yearly_2025.pdf" && e.Subject == "Subscription report for 2025"
		})).Return(nil).Once()
		repo.On("NextID", ctx, models.KindYearlyReport).Return("yearpt01", nil).Once()
		repo.On("SaveReport", ctx, mock.MatchedBy(func(r *models.Report) bool {
			return r.Kind == models.ReportYearly && r.ID == "yearpt01" && r.TotalAmount == 126.00 && len(r.Months) == 12
		})).Return(true, nil).Once()

		generated, err := newTestService(repo, renderer, mailer).EnsureYearlyReport(ctx, scenarioUser(t), today)
		require.NoError(t, err)
		assert.True(t, generated)
		repo.AssertExpectations(t)
		mailer.AssertExpectations(t)
	})

	t.Run("incomplete year", func(t *testing.T) {
		repo := new(MockRepository)
		renderer := new(MockRenderer)
		mailer := new(MockMailer)

		reports := monthlyReports(t, 2025, map[time.Month]float64{
			time.November: 20.00, time.October: 30.00, time.December: 12.25,
		})
		repo.On("GetYearlyReport", ctx, "alice", 2025).Return(nil, nil).Once()
		repo.On("ListMonthlyReports", ctx, "alice", 2025).Return(reports, nil).Once()
		renderer.On("RenderYearly", ctx, mock.MatchedBy(func(p models.YearlyPayload) bool {
			return p.Incomplete && p.GrandTotal == 62.25 &&
				p.MonthlyReports[0].Month == time.October &&
				len(MissingMonths(p.MonthlyReports)) == 9
		})).Return([]byte("doc"), nil).Once()
		mailer.On("SendReport", ctx, mock.MatchedBy(func(e models.ReportEmail) bool {
			return strings.Contains(e.Body, "Missing monthly reports: January")
		})).Return(nil).Once()
		repo.On("NextID", ctx, models.KindYearlyReport).Return("yearpt02", nil).Once()
		repo.On("SaveReport", ctx, mock.Anything).Return(true, nil).Once()

		generated, err := newTestService(repo, renderer, mailer).EnsureYearlyReport(ctx, scenarioUser(t), today)
		require.NoError(t, err)
		assert.True(t, generated)
	})

	t.Run("no monthly reports", func(t *testing.T) {
		repo := new(MockRepository)
		renderer := new(MockRenderer)

		repo.On("GetYearlyReport", ctx, "alice", 2025).Return(nil, nil).Once()
		repo.On("ListMonthlyReports", ctx, "alice", 2025).Return([]*models.Report{}, nil).Once()

		generated, err := newTestService(repo, renderer, new(MockMailer)).EnsureYearlyReport(ctx, scenarioUser(t), today)
		require.ErrorIs(t, err, models.ErrDataConsistency)
		assert.False(t, generated)
		renderer.AssertNotCalled(t, "RenderYearly", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "SaveReport", mock.Anything, mock.Anything)
	})

	t.Run("already generated", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetYearlyReport", ctx, "alice", 2025).Return(&models.Report{ID: "yearpt01", Kind: models.ReportYearly}, nil).Once()

		generated, err := newTestService(repo, new(MockRenderer), new(MockMailer)).EnsureYearlyReport(ctx, scenarioUser(t), today)
		require.NoError(t, err)
		assert.False(t, generated)
		repo.AssertNotCalled(t, "ListMonthlyReports", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBuildYearlyPayload_Note(t *testing.T) {
	u := scenarioUser(t)
	rows := []models.MonthTotal{{Month: time.January, TotalAmount: 1300.00}}

	p := BuildYearlyPayload(u, 2025, rows, generatedAt, "$")
	assert.True(t, p.Incomplete)
	assert.Contains(t, p.Note, "Over budget")
	assert.Contains(t, p.Note, "February, March")
	assert.NotContains(t, p.Note, "January")

	assert.Empty(t, MissingMonths([]models.MonthTotal{
		{Month: 1}, {Month: 2}, {Month: 3}, {Month: 4}, {Month: 5}, {Month: 6},
		{Month: 7}, {Month: 8}, {Month: 9}, {Month: 10}, {Month: 11}, {Month: 12},
	}))
}
