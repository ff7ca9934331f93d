package pgx

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies the embedded schema files in lexical order. Every statement
// is idempotent, so running it against an existing database is safe.
func (a *Adapter) Migrate(ctx context.Context) ([]string, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := a.pool.Exec(ctx, string(body)); err != nil {
			return nil, fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return names, nil
}
