package migrations

import "embed"

// FS holds the goose migrations applied by cmd/cli.
//
//go:embed *.sql
var FS embed.FS
