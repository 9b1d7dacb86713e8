package validate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gunvolt24/ordersync/internal/ports"
)

// InputFormat — формат входного файла.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"  // один объект или массив объектов
	FormatJSONL InputFormat = "jsonl" // объект на строку
)

// resolveFormat — auto определяется по расширению, неизвестное расширение читается как JSON.
func resolveFormat(filePath string, format InputFormat) InputFormat {
	if format != FormatAuto {
		return format
	}
	if strings.EqualFold(filepath.Ext(filePath), ".jsonl") {
		return FormatJSONL
	}
	return FormatJSON
}

// ValidateFile — проверяет файл с данными новых заказов.
// Нормализованные валидные записи пишутся в ow, причины отказа в errw (если задан).
// Возвращает сводку вида "N valid / M invalid".
func ValidateFile(ctx context.Context, validator ports.OrderValidator, filePath string, format InputFormat, ow, errw io.Writer) (string, error) {
	format = resolveFormat(filePath, format)
	if format != FormatJSON && format != FormatJSONL {
		return "", fmt.Errorf("unsupported format: %s", format)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var res JSONLResult
	if format == FormatJSONL {
		res, err = ValidateJSONLStream(ctx, validator, file, ow, errw)
	} else {
		res, err = validateJSONDocument(ctx, validator, file, ow, errw)
	}
	return res.String(), err
}

// validateJSONDocument — один объект (ошибка валидации возвращается) или массив объектов
// (невалидные элементы только считаются и описываются в errw).
func validateJSONDocument(ctx context.Context, validator ports.OrderValidator, r io.Reader, ow, errw io.Writer) (JSONLResult, error) {
	var res JSONLResult

	raw, err := io.ReadAll(r)
	if err != nil {
		return res, fmt.Errorf("read file: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		in, err := ValidateOrderFromJSON(ctx, validator, trimmed)
		if err != nil {
			res.InvalidLinesCount++
			return res, err
		}
		if err := writeLine(ow, in); err != nil {
			return res, err
		}
		res.ValidLinesCount++
		return res, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return res, fmt.Errorf("decode array: %w", err)
	}
	for i, item := range items {
		in, err := ValidateOrderFromJSON(ctx, validator, item)
		if err != nil {
			res.InvalidLinesCount++
			if errw != nil {
				fmt.Fprintf(errw, "item %d: %v\n", i, err)
			}
			continue
		}
		if err := writeLine(ow, in); err != nil {
			return res, err
		}
		res.ValidLinesCount++
	}
	return res, nil
}

// writeLine — компактный JSON и перевод строки.
func writeLine(w io.Writer, v any) error {
	bw := bufio.NewWriter(w)
	if err := json.NewEncoder(bw).Encode(v); err != nil {
		return fmt.Errorf("write valid record: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write valid record: %w", err)
	}
	return nil
}
