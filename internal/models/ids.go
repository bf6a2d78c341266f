package models

import (
	"context"
	"fmt"
)

// EntityKind тип сущности, для которой выделяется идентификатор.
type EntityKind string

// Префиксы идентификаторов: sub07, bud02, mntrpt12, yearpt03.
const (
	KindSubscription  EntityKind = "sub"
	KindBudget        EntityKind = "bud"
	KindMonthlyReport EntityKind = "mntrpt"
	KindYearlyReport  EntityKind = "yearpt"
)

// IDSource выдаёт монотонно растущие идентификаторы для сущностей.
type IDSource interface {
	NextID(ctx context.Context, kind EntityKind) (string, error)
}

// FormatID собирает идентификатор из префикса и порядкового номера.
func FormatID(kind EntityKind, seq int) string {
	return fmt.Sprintf("%s%02d", kind, seq)
}
