package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
)

// DecodeStrict — строгое декодирование одного JSON-объекта: неизвестные поля и хвост запрещены.
// Ошибки разбора оборачивают domain.ErrValidation.
func DecodeStrict(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json: %w", domain.ErrValidation, err)
	}
	// гарантируем отсутствие данных после объекта
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return fmt.Errorf("%w: invalid json: trailing data", domain.ErrValidation)
	}
	return nil
}

// ValidateOrderFromJSON — разбор и валидация данных нового заказа из JSON.
// Возвращает нормализованные данные.
func ValidateOrderFromJSON(ctx context.Context, validator ports.OrderValidator, raw []byte) (*domain.CreateOrderInput, error) {
	var in domain.CreateOrderInput
	if err := DecodeStrict(raw, &in); err != nil {
		return nil, err
	}
	if err := validator.ValidateCreate(ctx, in); err != nil {
		return nil, err
	}
	in = in.Normalize()
	return &in, nil
}
