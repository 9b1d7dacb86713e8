package ports

import "time"

// Clock — источник времени (подменяется в тестах).
type Clock interface {
	Now() time.Time
}
