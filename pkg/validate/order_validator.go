package validate

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/go-playground/validator/v10"
)

// Проверка, что OrderValidator удовлетворяет интерфейсу OrderValidator.
var _ ports.OrderValidator = (*OrderValidator)(nil)

// ErrInvalidOrder — базовая (sentinel) ошибка валидации; совпадает с доменной.
var ErrInvalidOrder = domain.ErrValidation

// OrderValidator — валидация входных данных заказа на тегах go-playground/validator.
type OrderValidator struct {
	v *validator.Validate
}

// NewOrderValidator — конструктор OrderValidator.
// Ошибки возвращаются как *domain.ValidationError со списком нарушенных полей.
func NewOrderValidator() *OrderValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В нарушениях используем имена полей из json-тегов.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &OrderValidator{v: v}
}

// ValidateCreate — данные нового заказа (проверяются после обрезки пробелов).
func (ov *OrderValidator) ValidateCreate(_ context.Context, in domain.CreateOrderInput) error {
	in = in.Normalize()
	if err := ov.v.Struct(in); err != nil {
		return toValidationError(err)
	}
	return nil
}

// ValidatePatch — частичное обновление: хотя бы одно поле; name, если передан, не пустой.
func (ov *OrderValidator) ValidatePatch(_ context.Context, patch domain.OrderPatch) error {
	patch = patch.Normalize()
	if patch.Empty() {
		return domain.NewValidationError(domain.FieldViolation{Field: "body", Rule: "at least one of name, description"})
	}

	var violations []domain.FieldViolation
	if patch.Name != nil {
		if err := ov.v.Var(*patch.Name, "required,max=255"); err != nil {
			violations = append(violations, fieldViolations("name", err)...)
		}
	}
	if patch.Description != nil {
		if err := ov.v.Var(*patch.Description, "max=500"); err != nil {
			violations = append(violations, fieldViolations("description", err)...)
		}
	}
	if len(violations) > 0 {
		return domain.NewValidationError(violations...)
	}
	return nil
}

// toValidationError — перевод ошибок validator в доменный тип.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError(domain.FieldViolation{Field: "body", Rule: err.Error()})
	}
	out := make([]domain.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.FieldViolation{Field: fe.Field(), Rule: rule(fe)})
	}
	return domain.NewValidationError(out...)
}

// fieldViolations — для Var() имя поля не известно валидатору, подставляем своё.
func fieldViolations(field string, err error) []domain.FieldViolation {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.FieldViolation{{Field: field, Rule: err.Error()}}
	}
	out := make([]domain.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.FieldViolation{Field: field, Rule: rule(fe)})
	}
	return out
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
