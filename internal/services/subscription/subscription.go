// Package subscription содержит бизнес-логику управления подписками и бюджетом
// пользователя с кешированием в Redis.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Repository определяет методы для работы с подписками и бюджетом в хранилище.
type Repository interface {
	NextID(ctx context.Context, kind models.EntityKind) (string, error)

	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, id string) error
	ListSubscriptions(ctx context.Context, username string) ([]*models.Subscription, error)

	CreateBudget(ctx context.Context, budget *models.Budget) error
	GetBudget(ctx context.Context, username string) (*models.Budget, error)
	UpdateBudget(ctx context.Context, budget *models.Budget) error
	DeleteBudget(ctx context.Context, username string) error
}

// Cache описывает методы для кеширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш; expiration 0 означает TTL по умолчанию.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значения из кеша.
	Invalidate(ctx context.Context, keys ...string) error
}

// Service реализует работу с подписками и бюджетом, включая кеширование.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create проверяет ввод, выделяет идентификатор и сохраняет подписку.
func (s *Service) Create(ctx context.Context, username string, in models.SubscriptionInput) (*models.Subscription, error) {
	const op = "subscription.Create"
	sub, err := models.NewSubscription(ctx, username, in, s.repo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new subscription", slog.String("id", sub.ID), slog.String("username", sub.Username))

	s.cacheSet(ctx, cache.SubscriptionKey(sub.ID), sub)
	s.cacheInvalidate(ctx, cache.SubscriptionsKey(sub.Username))
	return sub, nil
}

// Read возвращает подписку пользователя по ID, используя кеш или репозиторий.
// Чужая или отсутствующая подписка даёт (nil, nil).
func (s *Service) Read(ctx context.Context, username, id string) (*models.Subscription, error) {
	const op = "subscription.Read"
	var result *models.Subscription
	found, err := s.cache.Get(ctx, cache.SubscriptionKey(id), &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("id", id), sl.Err(err))
	}
	if !found || result == nil {
		result, err = s.repo.GetSubscription(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if result != nil {
			s.cacheSet(ctx, cache.SubscriptionKey(id), result)
		}
	}
	if result == nil || result.Username != username {
		return nil, nil
	}
	return result, nil
}

// Update применяет изменения полей атомарно: при любой ошибке подписка не меняется.
func (s *Service) Update(ctx context.Context, username, id string, fields map[string]string) (*models.Subscription, error) {
	const op = "subscription.Update"
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil || sub.Username != username {
		return nil, fmt.Errorf("%s: subscription %s: %w", op, id, models.ErrNotFound)
	}
	if err := sub.ApplyUpdates(fields); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("updated subscription", slog.String("id", id))

	s.cacheSet(ctx, cache.SubscriptionKey(id), sub)
	s.cacheInvalidate(ctx, cache.SubscriptionsKey(username))
	return sub, nil
}

// Remove удаляет подписку пользователя и инвалидирует кеш.
func (s *Service) Remove(ctx context.Context, username, id string) error {
	const op = "subscription.Remove"
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil || sub.Username != username {
		return fmt.Errorf("%s: subscription %s: %w", op, id, models.ErrNotFound)
	}

	s.cacheInvalidate(ctx, cache.SubscriptionKey(id), cache.SubscriptionsKey(username))
	if err := s.repo.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("removed subscription", slog.String("id", id))
	return nil
}

// List возвращает подписки пользователя в порядке добавления.
func (s *Service) List(ctx context.Context, username string) ([]*models.Subscription, error) {
	const op = "subscription.List"
	var subs []*models.Subscription
	key := cache.SubscriptionsKey(username)
	found, err := s.cache.Get(ctx, key, &subs)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return subs, nil
	}

	subs, err = s.repo.ListSubscriptions(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(ctx, key, subs)
	return subs, nil
}

// Totals расходы пользователя в месяц и в год по всем подпискам.
func (s *Service) Totals(ctx context.Context, username string) (models.Totals, error) {
	subs, err := s.List(ctx, username)
	if err != nil {
		return models.Totals{}, err
	}
	return models.ComputeTotals(subs), nil
}

// SetBudget создаёт бюджет или меняет его сумму.
func (s *Service) SetBudget(ctx context.Context, username, amountRaw string) (*models.Budget, error) {
	const op = "subscription.SetBudget"
	budget, err := s.repo.GetBudget(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if budget == nil {
		budget, err = models.NewBudget("", username, amountRaw, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if budget.ID, err = s.repo.NextID(ctx, models.KindBudget); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.repo.CreateBudget(ctx, budget); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("created budget", slog.String("id", budget.ID), slog.String("username", username))
	} else {
		if err := budget.ApplyUpdates(map[string]string{models.FieldMonthlyBudgetAmount: amountRaw}); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.repo.UpdateBudget(ctx, budget); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("updated budget", slog.String("id", budget.ID), slog.String("username", username))
	}

	s.cacheInvalidate(ctx, cache.BudgetKey(username))
	return s.bind(ctx, budget)
}

// GetBudget возвращает бюджет, привязанный к текущим подпискам пользователя,
// или nil, если бюджет не задан.
func (s *Service) GetBudget(ctx context.Context, username string) (*models.Budget, error) {
	const op = "subscription.GetBudget"
	var budget *models.Budget
	key := cache.BudgetKey(username)
	found, err := s.cache.Get(ctx, key, &budget)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if !found || budget == nil {
		budget, err = s.repo.GetBudget(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if budget == nil {
			return nil, nil
		}
		s.cacheSet(ctx, key, budget)
	}
	return s.bind(ctx, budget)
}

// DeleteBudget удаляет бюджет пользователя.
func (s *Service) DeleteBudget(ctx context.Context, username string) error {
	const op = "subscription.DeleteBudget"
	s.cacheInvalidate(ctx, cache.BudgetKey(username))
	if err := s.repo.DeleteBudget(ctx, username); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) bind(ctx context.Context, budget *models.Budget) (*models.Budget, error) {
	subs, err := s.List(ctx, budget.Username)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: budget.Username, Subscriptions: subs}
	user.AttachBudget(budget)
	return budget, nil
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.log.Warn("failed to cache value", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate cache", slog.Any("keys", keys), sl.Err(err))
	}
}
