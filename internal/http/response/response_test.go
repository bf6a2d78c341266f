package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

func TestStatusCodeAndDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "field validation",
			err:      fmt.Errorf("op: %w", &models.ValidationError{Field: "price", Value: "20", Reason: "bad"}),
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  `invalid price "20": bad`,
		},
		{
			name:     "wrapped validation",
			err:      fmt.Errorf("budget already exists: %w", models.ErrValidation),
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "budget already exists: validation error",
		},
		{
			name:     "not found",
			err:      fmt.Errorf("op: sub01: %w", models.ErrNotFound),
			wantCode: http.StatusNotFound,
			wantMsg:  "not found",
		},
		{
			name:     "internal",
			err:      errors.New("pq: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, StatusCode(tt.err))
			resp := DomainError(tt.err, "fallback")
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Error)
		})
	}
}
