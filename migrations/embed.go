// Package migrations — SQL-миграции схемы, встроенные в бинарь.
package migrations

import "embed"

// FS — файлы миграций goose.
//
//go:embed *.sql
var FS embed.FS
