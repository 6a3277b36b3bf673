package main

import (
	"io/fs"
	"os"
	"strings"

	"github.com/nimasrn/smart-wakala/internal/config"
	"github.com/nimasrn/smart-wakala/migrations"
	"github.com/nimasrn/smart-wakala/pkg/logger"
	"github.com/nimasrn/smart-wakala/pkg/pg"
)

// main.go --env=.env --dir=./migrations
func main() {
	defer logger.Sync()

	err := config.Load(config.EnvPathFromArgs(os.Args[1:], ".env"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	fsys, dir := migrationSource(os.Args[1:])
	if err = pg.Migrate(config.Get().PostgresWriteConfig(), fsys, dir); err != nil {
		logger.Error("migration: error running migrations", "error", err)
		os.Exit(1)
	}
}

// migrationSource returns the embedded migrations unless --dir points at a
// directory on disk.
func migrationSource(args []string) (fs.FS, string) {
	for _, v := range args {
		if dir, ok := strings.CutPrefix(v, "--dir="); ok {
			if _, err := os.Stat(dir); err != nil {
				logger.Error("failed to open the migration directory, using embedded migrations", "dir", dir, "error", err)
				break
			}
			return nil, dir
		}
	}
	return migrations.FS, "."
}
