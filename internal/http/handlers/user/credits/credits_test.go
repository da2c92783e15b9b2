package credits

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ssnapify/ssnapify-backend/internal/http/middlewarectx"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// MockService реализует интерфейс credits.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) GetCreditsInfo(ctx context.Context, user *models.User, now time.Time) (*models.CreditsInfo, error) {
	args := m.Called(ctx, user, now)
	if res := args.Get(0); res != nil {
		return res.(*models.CreditsInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCreditsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	user := &models.User{UID: "uid-1", Username: "testuser", Role: models.RoleUser, PlanID: 2, CreditBalance: 37}

	tests := []struct {
		name           string
		withUser       bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "успешная проекция кредитов",
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("GetCreditsInfo", mock.Anything, user, mock.AnythingOfType("time.Time")).
					Return(&models.CreditsInfo{
						Balance:        37,
						PlanID:         2,
						DaysUntilReset: 12,
						CycleEndsAt:    time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC),
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"days_until_reset":12`,
		},
		{
			name:           "пользователь отсутствует в контексте",
			withUser:       false,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:     "ошибка биллингового сервиса",
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("GetCreditsInfo", mock.Anything, user, mock.AnythingOfType("time.Time")).
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to get credits info"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/users/me/credits", nil)
			if tt.withUser {
				ctx := context.WithValue(req.Context(), middlewarectx.User, user)
				req = req.WithContext(ctx)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
