package models

import (
	"errors"
	"strings"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
)

// Имена полей пользователя для ApplyUpdates.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// User владелец подписок и бюджета.
type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	Subscriptions []*Subscription `json:"subscriptions,omitempty"`
	Budget        *Budget         `json:"budget,omitempty"`
}

// NewUser проверяет регистрационные данные и хеширует пароль.
func NewUser(username, email, rawPassword string, createdAt time.Time) (*User, error) {
	u := &User{CreatedAt: createdAt}
	if err := u.SetUsername(username); err != nil {
		return nil, err
	}
	if err := u.SetEmail(email); err != nil {
		return nil, err
	}
	if err := u.SetPassword(rawPassword); err != nil {
		return nil, err
	}
	return u, nil
}

// SetUsername принимает только латинские буквы и цифры.
func (u *User) SetUsername(raw string) error {
	v, err := parseUsername(raw)
	if err != nil {
		return err
	}
	u.Username = v
	return nil
}

// SetEmail принимает адрес вида local@domain.tld.
func (u *User) SetEmail(raw string) error {
	v, err := parseEmail(raw)
	if err != nil {
		return err
	}
	u.Email = v
	return nil
}

// SetPassword заменяет хеш пароля. Сам пароль не сохраняется.
func (u *User) SetPassword(raw string) error {
	hash, err := password.GetHash(raw)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return invalid(FieldPassword, "", "must be at least 8 characters long")
		}
		return err
	}
	u.PasswordHash = hash
	return nil
}

// ApplyUpdates атомарно меняет поля учётной записи.
func (u *User) ApplyUpdates(fields map[string]string) error {
	next := *u
	for field, raw := range fields {
		var err error
		switch field {
		case FieldUsername:
			err = next.SetUsername(raw)
		case FieldEmail:
			err = next.SetEmail(raw)
		case FieldPassword:
			err = next.SetPassword(raw)
		default:
			err = invalid(field, raw, "unknown user field")
		}
		if err != nil {
			return err
		}
	}
	*u = next
	return nil
}

// SubscriptionList реализует SubscriptionSource для бюджета.
func (u *User) SubscriptionList() []*Subscription {
	return u.Subscriptions
}

// AddSubscription добавляет подписку в конец списка. Названия сервисов
// у одного пользователя уникальны.
func (u *User) AddSubscription(s *Subscription) error {
	if s.Username != u.Username {
		return invalid(FieldUsername, s.Username, "subscription belongs to another user")
	}
	if existing := u.SubscriptionByName(s.ServiceName); existing != nil && existing.ID != s.ID {
		return invalid(FieldServiceName, s.ServiceName, "subscription with this name already exists")
	}
	u.Subscriptions = append(u.Subscriptions, s)
	return nil
}

// RemoveSubscription удаляет подписку по идентификатору, сохраняя порядок остальных.
func (u *User) RemoveSubscription(id string) bool {
	for i, s := range u.Subscriptions {
		if s.ID == id {
			u.Subscriptions = append(u.Subscriptions[:i], u.Subscriptions[i+1:]...)
			return true
		}
	}
	return false
}

// SubscriptionByID ищет подписку по идентификатору.
func (u *User) SubscriptionByID(id string) *Subscription {
	for _, s := range u.Subscriptions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SubscriptionByName ищет подписку по названию сервиса без учёта регистра.
func (u *User) SubscriptionByName(name string) *Subscription {
	for _, s := range u.Subscriptions {
		if strings.EqualFold(s.ServiceName, strings.TrimSpace(name)) {
			return s
		}
	}
	return nil
}

// AttachBudget связывает бюджет с пользователем, чтобы его суммы
// считались по подпискам пользователя.
func (u *User) AttachBudget(b *Budget) {
	if b == nil {
		u.Budget = nil
		return
	}
	b.Bind(u)
	u.Budget = b
}

// Totals расходы пользователя по всем подпискам.
func (u *User) Totals() Totals {
	return ComputeTotals(u.Subscriptions)
}
