// Package retry — экспоненциальный backoff с equal-jitter для повторов обращений к внешним зависимостям.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Policy — параметры повторов.
type Policy struct {
	Attempts int           // всего попыток (>= 1)
	Initial  time.Duration // первая пауза
	Max      time.Duration // потолок паузы
}

// permanentError — ошибка, после которой повторять бессмысленно.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent — пометить ошибку как неповторяемую.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do — вызывает fn до успеха, до исчерпания попыток, до постоянной ошибки или отмены контекста.
// Возвращает последнюю ошибку fn (постоянная ошибка возвращается без обёртки).
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := p.Initial

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if i == attempts-1 {
			break
		}
		if !Sleep(ctx, EqualJitter(wait)) {
			return err
		}
		wait = Next(wait, p.Max)
	}
	return err
}

// Startup — политика ожидания зависимости на старте: попытки ограничены только временем.
var Startup = Policy{Attempts: 1 << 20, Initial: 200 * time.Millisecond, Max: 5 * time.Second}

// UntilTimeout — повторять fn по политике Startup, пока не истечёт timeout.
// При timeout <= 0 попытка одна.
func UntilTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return Startup.Do(ctx, fn)
}

// Next — следующая пауза: удвоение с потолком max (max <= 0 — без потолка).
func Next(current, max time.Duration) time.Duration {
	current *= 2
	if max > 0 && current > max {
		return max
	}
	return current
}

// EqualJitter — половина задержки фиксирована, вторая половина случайна.
func EqualJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(d-half)+1))
}

// Sleep — ждёт d или отмену контекста; false, если контекст отменён.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
