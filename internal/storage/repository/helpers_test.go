package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/subscription-tracker/internal/migrations"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	return storage
}

// TestDataFactory создаёт тестовые данные через методы Storage.
type TestDataFactory struct {
	t       *testing.T
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(t *testing.T, storage *Storage) *TestDataFactory {
	return &TestDataFactory{t: t, storage: storage}
}

// CreateUser создает тестового пользователя
func (f *TestDataFactory) CreateUser(username string) *models.User {
	f.t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(f.t, f.storage.CreateUser(context.Background(), u))
	return u
}

// CreateSubscription создает тестовую ежемесячную подписку
func (f *TestDataFactory) CreateSubscription(username, serviceName, price string, active bool) *models.Subscription {
	f.t.Helper()
	status := "Active"
	if !active {
		status = "Cancelled"
	}
	sub, err := models.NewSubscription(context.Background(), username, models.SubscriptionInput{
		ServiceType:      "Streaming",
		ServiceName:      serviceName,
		Category:         "Entertainment",
		PlanType:         "Standard",
		ActiveStatus:     status,
		Price:            price,
		BillingFrequency: "Monthly",
		StartDate:        "01/01/2025",
		RenewalDate:      "15",
		AutoRenewal:      "Yes",
	}, f.storage)
	require.NoError(f.t, err)
	require.NoError(f.t, f.storage.CreateSubscription(context.Background(), sub))
	return sub
}
