// Package account отвечает за регистрацию, вход, изменение и удаление пользователей.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// ErrInvalidCredentials неверное имя пользователя или пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository хранилище пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, username string, user *models.User) error
	DeleteUser(ctx context.Context, username string) error
	ListSubscriptions(ctx context.Context, username string) ([]*models.Subscription, error)
}

// Cache кеш, из которого удаляются данные пользователя при изменении.
type Cache interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Service сервис учётных записей.
type Service struct {
	users    UserRepository
	cache    Cache
	jwtMaker jwt.Maker
	log      *slog.Logger
	now      func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository, cache Cache, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		cache:    cache,
		jwtMaker: jwtMaker,
		log:      log,
		now:      time.Now,
	}
}

// Register проверяет данные, хеширует пароль и сохраняет пользователя.
func (s *Service) Register(ctx context.Context, username, email, rawPassword string) (*models.User, error) {
	const op = "account.Register"
	user, err := models.NewUser(username, email, rawPassword, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("username", user.Username))
	return user, nil
}

// Login проверяет пароль и выпускает токен доступа.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "account.Login"
	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.Username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ValidateToken возвращает имя пользователя из действительного токена.
func (s *Service) ValidateToken(token string) (string, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}

// Update меняет поля пользователя (username, email, password) атомарно.
// Смена имени каскадно переносит подписки, бюджет и отчёты.
func (s *Service) Update(ctx context.Context, username string, fields map[string]string) (*models.User, error) {
	const op = "account.Update"
	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%s: user %s: %w", op, username, models.ErrNotFound)
	}
	if err := user.ApplyUpdates(fields); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdateUser(ctx, username, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Username != username {
		s.invalidate(ctx, username)
	}
	s.log.Info("user updated", slog.String("username", user.Username))
	return user, nil
}

// Delete удаляет пользователя вместе со всеми его данными.
func (s *Service) Delete(ctx context.Context, username string) error {
	const op = "account.Delete"
	s.invalidate(ctx, username)
	if err := s.users.DeleteUser(ctx, username); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.String("username", username))
	return nil
}

func (s *Service) invalidate(ctx context.Context, username string) {
	if s.cache == nil {
		return
	}
	keys := []string{cache.SubscriptionsKey(username), cache.BudgetKey(username)}
	subs, err := s.users.ListSubscriptions(ctx, username)
	if err != nil {
		s.log.Warn("failed to list subscriptions for cache invalidation", sl.Err(err))
	}
	for _, sub := range subs {
		keys = append(keys, cache.SubscriptionKey(sub.ID))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("username", username), sl.Err(err))
	}
}
