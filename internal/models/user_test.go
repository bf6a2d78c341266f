package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
)

func TestNewUser(t *testing.T) {
	created := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		username  string
		email     string
		password  string
		wantField string
	}{
		{name: "valid", username: "alice01", email: "Alice@Example.com", password: "s3cretpass"},
		{name: "username with symbols", username: "alice_01", email: "a@example.com", password: "s3cretpass", wantField: FieldUsername},
		{name: "email without tld", username: "alice", email: "alice@example", password: "s3cretpass", wantField: FieldEmail},
		{name: "short password", username: "alice", email: "a@example.com", password: "short", wantField: FieldPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUser(tt.username, tt.email, tt.password, created)
			if tt.wantField != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice01", u.Username)
			assert.Equal(t, "alice@example.com", u.Email)
			assert.Equal(t, created, u.CreatedAt)
			assert.NotEqual(t, tt.password, u.PasswordHash)
			assert.NoError(t, password.CompareHash(u.PasswordHash, tt.password))
		})
	}
}

func TestUser_ApplyUpdatesIsAtomic(t *testing.T) {
	u, err := NewUser("alice", "alice@example.com", "s3cretpass", time.Now())
	require.NoError(t, err)

	err = u.ApplyUpdates(map[string]string{
		FieldEmail:    "new@example.com",
		FieldUsername: "bad name",
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "alice@example.com", u.Email)

	require.NoError(t, u.ApplyUpdates(map[string]string{FieldEmail: "new@example.com"}))
	assert.Equal(t, "new@example.com", u.Email)
}

func TestUser_AddSubscription(t *testing.T) {
	u := &User{Username: "alice"}

	require.NoError(t, u.AddSubscription(sub("Netflix", 17.99, FrequencyMonthly, true)))

	dup := sub("netflix", 9.99, FrequencyMonthly, true)
	dup.ID = "sub-other"
	err := u.AddSubscription(dup)
	require.ErrorIs(t, err, ErrValidation)

	foreign := sub("Hulu", 7.99, FrequencyMonthly, true)
	foreign.Username = "bob"
	require.ErrorIs(t, u.AddSubscription(foreign), ErrValidation)

	assert.Len(t, u.SubscriptionList(), 1)
	assert.NotNil(t, u.SubscriptionByName("NETFLIX"))
	assert.NotNil(t, u.SubscriptionByID("sub-Netflix"))
	assert.False(t, u.RemoveSubscription("missing"))
}
