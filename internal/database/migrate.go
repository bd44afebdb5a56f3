package database

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending migration for the pool's dialect in filename order.
// Applied files are recorded in schema_migrations with a checksum of their contents.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	dir := path.Join("migrations", string(db.Dialect.Driver))
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return errors.Wrapf(err, "read migrations for %s", db.Dialect.Driver)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		content, err := migrationsFS.ReadFile(path.Join(dir, name))
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}

		// 0000 creates schema_migrations itself, so it is always re-run.
		// Its statements are idempotent.
		if !strings.HasPrefix(name, "0000_") {
			applied, err := isApplied(ctx, db, name)
			if err != nil {
				return err
			}
			if applied {
				logger.Debug("migration already applied", slog.String("file", name))
				continue
			}
		}

		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "apply migration %s", name)
			}
		}

		if strings.HasPrefix(name, "0000_") {
			continue
		}
		sum := sha256.Sum256(content)
		q := db.Rebind("INSERT INTO schema_migrations (filename, checksum) VALUES (?, ?)")
		if _, err := db.ExecContext(ctx, q, name, hex.EncodeToString(sum[:])); err != nil {
			return errors.Wrapf(err, "record migration %s", name)
		}
		logger.Info("migration applied", slog.String("file", name))
	}
	return nil
}

func isApplied(ctx context.Context, db *DB, name string) (bool, error) {
	var count int
	q := db.Rebind("SELECT COUNT(*) FROM schema_migrations WHERE filename = ?")
	if err := db.GetContext(ctx, &count, q, name); err != nil {
		return false, errors.Wrap(err, "check migration status")
	}
	return count > 0, nil
}

// splitStatements breaks a file on ';'. Migration files carry no procedural bodies.
func splitStatements(sql string) []string {
	var out []string
	for _, part := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
