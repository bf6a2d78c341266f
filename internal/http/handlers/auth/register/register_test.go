package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type AccountMock struct {
	mock.Mock
}

func (m *AccountMock) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	args := m.Called(ctx, username, email, password)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := Request{Username: "alice", Email: "Alice@Example.com", Password: "s3cretpass"}

	tests := []struct {
		name        string
		body        any
		mockUser    *models.User
		mockErr     error
		callService bool
		wantCode    int
		wantStatus  string
		wantError   string
	}{
		{
			name:        "valid registration",
			body:        valid,
			mockUser:    &models.User{Username: "alice", Email: "alice@example.com"},
			callService: true,
			wantCode:    http.StatusCreated,
			wantStatus:  "OK",
		},
		{
			name:       "invalid json body",
			body:       "not a json",
			wantCode:   http.StatusBadRequest,
			wantStatus: "Error",
			wantError:  "invalid request body",
		},
		{
			name:       "missing password",
			body:       Request{Username: "alice", Email: "alice@example.com"},
			wantCode:   http.StatusUnprocessableEntity,
			wantStatus: "Error",
			wantError:  "field Password is a required field",
		},
		{
			name:        "domain validation",
			body:        valid,
			mockErr:     fmt.Errorf("account.Register: %w", &models.ValidationError{Field: "password", Reason: "must be at least 8 characters long"}),
			callService: true,
			wantCode:    http.StatusUnprocessableEntity,
			wantStatus:  "Error",
			wantError:   "invalid password: must be at least 8 characters long",
		},
		{
			name:        "storage failure",
			body:        valid,
			mockErr:     errors.New("connection reset"),
			callService: true,
			wantCode:    http.StatusInternalServerError,
			wantStatus:  "Error",
			wantError:   "could not register user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AccountMock)
			if tt.callService {
				svc.On("Register", mock.Anything, valid.Username, valid.Email, valid.Password).
					Return(tt.mockUser, tt.mockErr).Once()
			}

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			New(sl.Discard(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp["error"])
			} else {
				data := resp["data"].(map[string]any)
				assert.Equal(t, "alice", data["username"])
				assert.Equal(t, "alice@example.com", data["email"])
			}
			svc.AssertExpectations(t)
		})
	}
}
