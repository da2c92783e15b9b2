package services_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ssnapify/ssnapify-backend/internal/billing"
	"github.com/ssnapify/ssnapify-backend/internal/models"
	services "github.com/ssnapify/ssnapify-backend/internal/services/billing"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateBillingState(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) DebitCredits(ctx context.Context, userUID string, cost int) (int, bool, error) {
	args := m.Called(ctx, userUID, cost)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *UserRepoMock) CreditBack(ctx context.Context, userUID string, cost int) (int, error) {
	args := m.Called(ctx, userUID, cost)
	return args.Int(0), args.Error(1)
}

func (m *UserRepoMock) ListBillingRecords(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// Мок для EventPublisher
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) PublishPlanExpired(event models.PlanExpiredEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newService(repo *UserRepoMock, events services.EventPublisher, batchSize int) *services.BillingService {
	return services.NewBillingService(repo, billing.DefaultCatalog(), events, batchSize, discardLogger())
}

func parseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func timePtr(t time.Time) *time.Time { return &t }

func TestBillingService_SpendCredits(t *testing.T) {
	tests := []struct {
		name        string
		user        *models.User
		cost        int
		setupMocks  func(r *UserRepoMock)
		wantBalance int
		wantErr     error
	}{
		{
			name:        "admin bypasses charge",
			user:        &models.User{UID: "uid-1", Role: models.RoleAdmin, CreditBalance: 3},
			cost:        5,
			setupMocks:  func(_ *UserRepoMock) {},
			wantBalance: 3,
		},
		{
			name:        "zero cost bypasses charge",
			user:        &models.User{UID: "uid-1", Role: models.RoleUser, CreditBalance: 3},
			cost:        0,
			setupMocks:  func(_ *UserRepoMock) {},
			wantBalance: 3,
		},
		{
			name: "successful debit",
			user: &models.User{UID: "uid-1", Role: models.RoleUser, CreditBalance: 10},
			cost: 4,
			setupMocks: func(r *UserRepoMock) {
				r.On("DebitCredits", mock.Anything, "uid-1", 4).Return(6, true, nil).Once()
			},
			wantBalance: 6,
		},
		{
			name: "insufficient balance",
			user: &models.User{UID: "uid-1", Role: models.RoleUser, CreditBalance: 2},
			cost: 4,
			setupMocks: func(r *UserRepoMock) {
				r.On("DebitCredits", mock.Anything, "uid-1", 4).Return(0, false, nil).Once()
			},
			wantBalance: 2,
			wantErr:     services.ErrInsufficientCredits,
		},
		{
			name: "repository error",
			user: &models.User{UID: "uid-1", Role: models.RoleUser, CreditBalance: 10},
			cost: 4,
			setupMocks: func(r *UserRepoMock) {
				r.On("DebitCredits", mock.Anything, "uid-1", 4).
					Return(0, false, errors.New("connection lost")).Once()
			},
			wantErr: errors.New("connection lost"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := newService(repo, nil, 100)

			balance, err := svc.SpendCredits(context.Background(), tt.user, tt.cost)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, services.ErrInsufficientCredits) {
					assert.ErrorIs(t, err, services.ErrInsufficientCredits)
					assert.Equal(t, tt.wantBalance, balance)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBalance, balance)
				assert.Equal(t, tt.wantBalance, tt.user.CreditBalance)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestBillingService_SpendCredits_ConcurrentLosersGetError(t *testing.T) {
	// Хранилище удовлетворяет только первое списание, второе видит нехватку.
	repo := new(UserRepoMock)
	repo.On("DebitCredits", mock.Anything, "uid-1", 5).Return(0, true, nil).Once()
	repo.On("DebitCredits", mock.Anything, "uid-1", 5).Return(0, false, nil).Once()
	svc := newService(repo, nil, 100)

	first := &models.User{UID: "uid-1", Role: models.RoleUser, CreditBalance: 5}
	second := &models.User{UID: "uid-1", Role: models.RoleUser, CreditBalance: 5}

	_, err := svc.SpendCredits(context.Background(), first, 5)
	require.NoError(t, err)
	_, err = svc.SpendCredits(context.Background(), second, 5)
	assert.ErrorIs(t, err, services.ErrInsufficientCredits)
	repo.AssertExpectations(t)
}

func TestBillingService_RefundCredits(t *testing.T) {
	t.Run("zero cost is a no-op", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, nil, 100)

		err := svc.RefundCredits(context.Background(), "uid-1", 0)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("successful refund", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("CreditBack", mock.Anything, "uid-1", 3).Return(8, nil).Once()
		svc := newService(repo, nil, 100)

		err := svc.RefundCredits(context.Background(), "uid-1", 3)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("CreditBack", mock.Anything, "uid-1", 3).
			Return(0, errors.New("connection lost")).Once()
		svc := newService(repo, nil, 100)

		err := svc.RefundCredits(context.Background(), "uid-1", 3)

		require.Error(t, err)
		repo.AssertExpectations(t)
	})
}

func TestBillingService_GetCreditsInfo(t *testing.T) {
	t.Run("free plan user on calendar cycle", func(t *testing.T) {
		now := parseTime(t, "2025-03-10T00:00:00Z")
		user := &models.User{
			UID:               "uid-1",
			Role:              models.RoleUser,
			PlanID:            billing.FreePlanID,
			CreditBalance:     7,
			LastCreditResetAt: timePtr(parseTime(t, "2025-03-01T00:00:00Z")),
		}
		repo := new(UserRepoMock)
		svc := newService(repo, nil, 100)

		info, err := svc.GetCreditsInfo(context.Background(), user, now)

		require.NoError(t, err)
		assert.Equal(t, 7, info.Balance)
		assert.Equal(t, billing.FreePlanID, info.PlanID)
		assert.Equal(t, parseTime(t, "2025-04-01T00:00:00Z"), info.CycleEndsAt)
		assert.Equal(t, 22, info.DaysUntilReset)
		repo.AssertExpectations(t)
	})

	t.Run("paid plan user on anchored cycle", func(t *testing.T) {
		now := parseTime(t, "2025-03-20T00:00:00Z")
		user := &models.User{
			UID:               "uid-1",
			Role:              models.RoleUser,
			PlanID:            billing.SemiAnnualPlanID,
			CreditBalance:     42,
			BillingAnchorUTC:  timePtr(parseTime(t, "2025-01-15T10:00:00Z")),
			PlanExpiresAt:     timePtr(parseTime(t, "2025-07-15T10:00:00Z")),
			LastCreditResetAt: timePtr(parseTime(t, "2025-03-15T10:00:00Z")),
		}
		repo := new(UserRepoMock)
		svc := newService(repo, nil, 100)

		info, err := svc.GetCreditsInfo(context.Background(), user, now)

		require.NoError(t, err)
		assert.Equal(t, 42, info.Balance)
		assert.Equal(t, parseTime(t, "2025-04-15T10:00:00Z"), info.CycleEndsAt)
		assert.Equal(t, 27, info.DaysUntilReset)
		repo.AssertExpectations(t)
	})

	t.Run("overdue reset is applied before projecting", func(t *testing.T) {
		now := parseTime(t, "2025-03-10T00:00:00Z")
		user := &models.User{
			UID:               "uid-1",
			Role:              models.RoleUser,
			PlanID:            billing.FreePlanID,
			CreditBalance:     1,
			LastCreditResetAt: timePtr(parseTime(t, "2025-02-01T00:00:00Z")),
		}
		repo := new(UserRepoMock)
		repo.On("UpdateBillingState", mock.Anything, user).Return(nil).Once()
		svc := newService(repo, nil, 100)

		info, err := svc.GetCreditsInfo(context.Background(), user, now)

		require.NoError(t, err)
		assert.Equal(t, 10, info.Balance)
		assert.Equal(t, parseTime(t, "2025-04-01T00:00:00Z"), info.CycleEndsAt)
		repo.AssertExpectations(t)
	})
}

func TestBillingService_AssignPaidPlan(t *testing.T) {
	now := parseTime(t, "2025-03-10T12:00:00Z")

	t.Run("unknown plan", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, nil, 100)
		user := &models.User{UID: "uid-1", Role: models.RoleUser}

		err := svc.AssignPaidPlan(context.Background(), user, 99, now)

		assert.ErrorIs(t, err, services.ErrInvalidPlan)
		repo.AssertExpectations(t)
	})

	t.Run("free plan is not assignable", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, nil, 100)
		user := &models.User{UID: "uid-1", Role: models.RoleUser}

		err := svc.AssignPaidPlan(context.Background(), user, billing.FreePlanID, now)

		assert.ErrorIs(t, err, services.ErrInvalidPlan)
		repo.AssertExpectations(t)
	})

	t.Run("successful assignment replaces previous state", func(t *testing.T) {
		user := &models.User{
			UID:           "uid-1",
			Role:          models.RoleUser,
			PlanID:        billing.FreePlanID,
			CreditBalance: 7,
		}
		repo := new(UserRepoMock)
		repo.On("UpdateBillingState", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.PlanID == billing.MonthlyPlanID &&
				u.CreditBalance == 50 &&
				u.BillingAnchorUTC != nil && u.BillingAnchorUTC.Equal(now) &&
				u.PlanExpiresAt != nil && u.PlanExpiresAt.Equal(parseTime(t, "2025-04-10T12:00:00Z"))
		})).Return(nil).Once()
		svc := newService(repo, nil, 100)

		err := svc.AssignPaidPlan(context.Background(), user, billing.MonthlyPlanID, now)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestBillingService_RevertToFree(t *testing.T) {
	now := parseTime(t, "2025-03-10T12:00:00Z")
	user := &models.User{
		UID:              "uid-1",
		Role:             models.RoleUser,
		PlanID:           billing.MonthlyPlanID,
		CreditBalance:    33,
		BillingAnchorUTC: timePtr(parseTime(t, "2025-02-10T12:00:00Z")),
		PlanExpiresAt:    timePtr(parseTime(t, "2025-03-10T12:00:00Z")),
	}
	repo := new(UserRepoMock)
	repo.On("UpdateBillingState", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.PlanID == billing.FreePlanID &&
			u.CreditBalance == 10 &&
			u.BillingAnchorUTC == nil &&
			u.PlanExpiresAt == nil
	})).Return(nil).Once()
	svc := newService(repo, nil, 100)

	err := svc.RevertToFree(context.Background(), user, now)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
