package domain

// Статусы зависимостей в ответе готовности.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Readiness — состояние зеркал при доступном хранилище записей.
// Зеркала готовность не снимают: недоступный индекс или кэш только помечается.
type Readiness struct {
	Mirrors map[string]string `json:"mirrors"` // MirrorIndex/MirrorCache → "ok" или текст ошибки
}

// Degraded — хотя бы одно зеркало недоступно.
func (r Readiness) Degraded() bool {
	for _, st := range r.Mirrors {
		if st != StatusOK {
			return true
		}
	}
	return false
}

// Status — "ok" или "degraded".
func (r Readiness) Status() string {
	if r.Degraded() {
		return StatusDegraded
	}
	return StatusOK
}
