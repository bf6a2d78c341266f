package set

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SetBudget(ctx context.Context, username, amountRaw string) (*models.Budget, error) {
	args := m.Called(ctx, username, amountRaw)
	if b := args.Get(0); b != nil {
		return b.(*models.Budget), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSetHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "бюджет установлен",
			body: `{"monthly_budget_amount":"100.00"}`,
			setupMock: func(m *MockService) {
				m.On("SetBudget", mock.Anything, "alice", "100.00").
					Return(&models.Budget{ID: "bud01", Username: "alice", MonthlyBudgetAmount: 100}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"yearly_budget_amount":1200`,
		},
		{
			name:           "сумма не передана",
			body:           `{}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field MonthlyBudgetAmount is a required field",
		},
		{
			name: "отрицательная сумма",
			body: `{"monthly_budget_amount":"-1.00"}`,
			setupMock: func(m *MockService) {
				m.On("SetBudget", mock.Anything, "alice", "-1.00").
					Return(nil, fmt.Errorf("subscription.SetBudget: %w",
						&models.ValidationError{Field: "monthly_budget_amount", Value: "-1.00", Reason: "must be positive"}))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPut, "/budget", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.User, "alice"))
			w := httptest.NewRecorder()
			New(sl.Discard(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
