package httpx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// dateOnly — формат границы диапазона без времени.
const dateOnly = "2006-01-02"

// ParamError — некорректный параметр пути или query-строки.
type ParamError struct {
	Param string
	Value string
	Rule  string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%q: %s", e.Param, e.Value, e.Rule)
}

// ParseID — положительный int64 из параметра пути.
func ParseID(c *gin.Context, param string) (int64, error) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &ParamError{Param: param, Value: raw, Rule: "positive integer"}
	}
	return id, nil
}

// QueryInt — целое из query; отсутствие параметра даёт def.
func QueryInt(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ParamError{Param: key, Value: raw, Rule: "integer"}
	}
	return v, nil
}

// ParseLimitOffset — читает limit/offset из query. Отсутствующие значения равны 0,
// границы проверяет вызывающий.
func ParseLimitOffset(c *gin.Context) (limit, offset int, err error) {
	if limit, err = QueryInt(c, "limit", 0); err != nil {
		return 0, 0, err
	}
	if offset, err = QueryInt(c, "offset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// ParseTimeBound — граница диапазона в RFC3339 или YYYY-MM-DD (UTC).
// Для даты без времени при endOfDay возвращается последняя микросекунда суток.
func ParseTimeBound(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	d, err := time.ParseInLocation(dateOnly, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("expected RFC3339 or %s: %w", dateOnly, err)
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return &d, nil
}

// QueryTimeBound — ParseTimeBound для query-параметра key.
func QueryTimeBound(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	t, err := ParseTimeBound(raw, endOfDay)
	if err != nil {
		return nil, &ParamError{Param: key, Value: raw, Rule: "RFC3339 or YYYY-MM-DD"}
	}
	return t, nil
}
