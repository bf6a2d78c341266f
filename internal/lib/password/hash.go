// Package password реализует проверку и хеширование паролей пользователей.
//
// Пароль короче MinLength отклоняется ещё до хеширования. Хранится только bcrypt-хеш.
package password

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinLength минимальная длина пароля в символах.
const MinLength = 8

// ErrTooShort возвращается для паролей короче MinLength.
var ErrTooShort = errors.New("password is too short")

// Check проверяет требования к паролю.
func Check(raw string) error {
	if utf8.RuneCountInString(raw) < MinLength {
		return fmt.Errorf("%w: at least %d characters required", ErrTooShort, MinLength)
	}
	return nil
}

// GetHash проверяет пароль и возвращает его bcrypt-хеш.
func GetHash(raw string) (string, error) {
	const op = "password.GetHash"
	if err := Check(raw); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash возвращает nil, если пароль соответствует хешу.
func CompareHash(hash, raw string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
