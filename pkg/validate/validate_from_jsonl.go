package validate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Gunvolt24/ordersync/internal/ports"
)

// JSONLResult — статистика валидации потока JSONL.
type JSONLResult struct {
	ValidLinesCount   int
	InvalidLinesCount int
}

func (r JSONLResult) String() string {
	return fmt.Sprintf("%d valid / %d invalid", r.ValidLinesCount, r.InvalidLinesCount)
}

// ValidateJSONLStream — построчная валидация JSONL с данными новых заказов.
// Валидные строки пишутся в writer нормализованным компактным JSON, пустые пропускаются,
// номера невалидных строк с причиной попадают в errw (если он задан).
func ValidateJSONLStream(ctx context.Context, validator ports.OrderValidator, ir io.Reader, ow, errw io.Writer) (JSONLResult, error) {
	var res JSONLResult

	scanner := bufio.NewScanner(ir)
	// запас на большие строки
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		lineBytes := bytes.TrimSpace(scanner.Bytes())
		if len(lineBytes) == 0 {
			continue
		}

		in, err := ValidateOrderFromJSON(ctx, validator, lineBytes)
		if err != nil {
			res.InvalidLinesCount++
			if errw != nil {
				fmt.Fprintf(errw, "line %d: %v\n", line, err)
			}
			continue
		}

		if err := writeLine(ow, in); err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		res.ValidLinesCount++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("scan: %w", err)
	}
	return res, nil
}
