package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Базовые (sentinel) ошибки сервиса заказов.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("order not found")
	ErrInvalidRange      = errors.New("invalid date range")
	ErrStoreUnavailable  = errors.New("record store unavailable")
	ErrSearchUnavailable = errors.New("search unavailable")
	ErrMirrorSync        = errors.New("mirror sync failed")
)

// FieldViolation — нарушение правила для конкретного поля.
type FieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError — результат неуспешной валидации входных данных.
type ValidationError struct {
	Violations []FieldViolation
}

// NewValidationError — конструктор ValidationError.
func NewValidationError(v ...FieldViolation) *ValidationError {
	return &ValidationError{Violations: v}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Rule)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is — errors.Is(err, ErrValidation) для любой ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Зеркала, которые синхронизируются после записи в хранилище.
const (
	MirrorIndex = "index"
	MirrorCache = "cache"
)

// MirrorSyncError — зеркало (индекс или кэш) не удалось синхронизировать после успешной записи.
// Наружу не пробрасывается: логируется, считается метрикой и уходит в очередь ремонта.
type MirrorSyncError struct {
	Mirror  string
	Op      string
	OrderID int64
	Err     error
}

func (e *MirrorSyncError) Error() string {
	return fmt.Sprintf("%s: %s %s order_id=%d: %v", ErrMirrorSync, e.Mirror, e.Op, e.OrderID, e.Err)
}

func (e *MirrorSyncError) Unwrap() error { return e.Err }

// Is — errors.Is(err, ErrMirrorSync) для любой MirrorSyncError.
func (e *MirrorSyncError) Is(target error) bool { return target == ErrMirrorSync }
