package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	markerUp         = "-- +goose Up"
	markerDown       = "-- +goose Down"
	markerStmtBegin  = "-- +goose StatementBegin"
	markerStmtEnd    = "-- +goose StatementEnd"
	expectedNameHint = "YYYYMMDDHHMMSS_name.sql"
)

// Validate checks every .sql file in migrations: the name carries a unique
// 14 digit version, both directions are present with Up before Down, and
// statement blocks are balanced.
func Validate(migrations fs.FS) error {
	if migrations == nil {
		return errors.New("migrations source is required")
	}
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := migrationName.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected %s)", name, expectedNameHint)
		}
		if prev, ok := versions[m[1]]; ok {
			return fmt.Errorf("migration version %s used by %q and %q", m[1], prev, name)
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(migrations, name)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		if err := checkBody(string(body)); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}
	return nil
}

func checkBody(sql string) error {
	up := strings.Index(sql, markerUp)
	down := strings.Index(sql, markerDown)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", markerUp)
	case down < 0:
		return fmt.Errorf("missing %q", markerDown)
	case down < up:
		return errors.New("down section precedes up section")
	}
	depth := 0
	for _, line := range strings.Split(sql, "\n") {
		switch strings.TrimSpace(line) {
		case markerStmtBegin:
			depth++
			if depth > 1 {
				return errors.New("nested StatementBegin")
			}
		case markerStmtEnd:
			depth--
			if depth < 0 {
				return errors.New("StatementEnd without StatementBegin")
			}
		}
	}
	if depth != 0 {
		return errors.New("unterminated StatementBegin")
	}
	return nil
}
