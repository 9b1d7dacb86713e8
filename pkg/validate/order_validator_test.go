package validate_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/pkg/validate"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestOrderValidator_ValidateCreate(t *testing.T) {
	v := validate.NewOrderValidator()
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, v.ValidateCreate(ctx, domain.CreateOrderInput{Name: "Chair", Description: "oak"}))
	})

	t.Run("description optional", func(t *testing.T) {
		require.NoError(t, v.ValidateCreate(ctx, domain.CreateOrderInput{Name: "Chair"}))
	})

	cases := []struct {
		name  string
		in    domain.CreateOrderInput
		field string
		rule  string
	}{
		{name: "empty name", in: domain.CreateOrderInput{}, field: "name", rule: "required"},
		{name: "blank name", in: domain.CreateOrderInput{Name: " \t "}, field: "name", rule: "required"},
		{name: "long name", in: domain.CreateOrderInput{Name: strings.Repeat("я", 256)}, field: "name", rule: "max=255"},
		{name: "long description", in: domain.CreateOrderInput{Name: "x", Description: strings.Repeat("d", 501)}, field: "description", rule: "max=500"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateCreate(ctx, tc.in)
			require.ErrorIs(t, err, domain.ErrValidation)
			require.ErrorIs(t, err, validate.ErrInvalidOrder)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, []domain.FieldViolation{{Field: tc.field, Rule: tc.rule}}, verr.Violations)
		})
	}

	t.Run("255 runes is ok", func(t *testing.T) {
		require.NoError(t, v.ValidateCreate(ctx, domain.CreateOrderInput{Name: strings.Repeat("я", 255)}))
	})
}

func TestOrderValidator_ValidatePatch(t *testing.T) {
	v := validate.NewOrderValidator()
	ctx := context.Background()

	require.NoError(t, v.ValidatePatch(ctx, domain.OrderPatch{Name: ptr("Table")}))
	require.NoError(t, v.ValidatePatch(ctx, domain.OrderPatch{Description: ptr("")}), "описание можно очистить")

	err := v.ValidatePatch(ctx, domain.OrderPatch{})
	require.ErrorIs(t, err, domain.ErrValidation)

	err = v.ValidatePatch(ctx, domain.OrderPatch{Name: ptr("   ")})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "name", verr.Violations[0].Field)

	err = v.ValidatePatch(ctx, domain.OrderPatch{Name: ptr("ok"), Description: ptr(strings.Repeat("d", 501))})
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []domain.FieldViolation{{Field: "description", Rule: "max=500"}}, verr.Violations)
}
