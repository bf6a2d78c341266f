package models

import (
	"errors"
	"fmt"
)

// Базовые категории ошибок. Конкретные ошибки оборачивают одну из них,
// поэтому вызывающая сторона проверяет категорию через errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrScheduling      = errors.New("scheduling error")
	ErrExternalService = errors.New("external service error")
	ErrDataConsistency = errors.New("data consistency error")
)

// ValidationError описывает некорректное значение конкретного поля.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap позволяет сопоставлять ошибку с ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
