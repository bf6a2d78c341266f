package remove

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// MockService реализует интерфейс remove.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Remove(ctx context.Context, username, id string) error {
	return m.Called(ctx, username, id).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		mockErr        error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "успешное удаление",
			id:             "sub01",
			expectedStatus: http.StatusOK,
			expectedBody:   `"deleted":"sub01"`,
		},
		{
			name:           "подписка не найдена",
			id:             "sub99",
			mockErr:        fmt.Errorf("subscription.Remove: %w", models.ErrNotFound),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"not found"`,
		},
		{
			name:           "ошибка сервиса",
			id:             "sub01",
			mockErr:        errors.New("db error"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not remove subscription"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockService.On("Remove", mock.Anything, "alice", tt.id).Return(tt.mockErr)

			req := httptest.NewRequest(http.MethodDelete, "/subscriptions/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(context.WithValue(ctx, middlewarectx.User, "alice"))

			w := httptest.NewRecorder()
			New(sl.Discard(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
