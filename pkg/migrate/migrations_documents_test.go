package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lekhapadi/lekhapadi-backend/pkg/migrate"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := migrate.Validate(migrate.Embedded()); err != nil {
		t.Fatalf("expected embedded migrations to validate: %v", err)
	}
	if err := migrate.Validate(migrate.Source("migrations")); err != nil {
		t.Fatalf("expected on-disk migrations to validate: %v", err)
	}
}

func TestOutboxMigrationKeepsOnceOnlyEventsUnique(t *testing.T) {
	content := readMigration(t, "*_create_outbox.sql")
	for _, sub := range []string{
		"ux_outbox_events_event_aggregate",
		"WHERE event_type <> 'signature_requested'",
		"ux_outbox_dlq_event_id",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestDocumentsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_documents.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS documents",
		"status document_status NOT NULL DEFAULT 'Created'",
		"version integer NOT NULL DEFAULT 1",
		"CHECK ((status = 'Signed') = (signed_artifact_url IS NOT NULL))",
		"ON documents (owner_email, created_at DESC)",
		"DROP TABLE IF EXISTS documents",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnumMigrationMatchesStatusTaxonomy(t *testing.T) {
	content := readMigration(t, "*_create_document_enums.sql")
	for _, status := range []string{"'Created'", "'Pending Signature'", "'Signed'", "'Rejected'"} {
		if !strings.Contains(content, status) {
			t.Errorf("document_status enum missing %s", status)
		}
	}
	for _, event := range []string{"'document_created'", "'signature_requested'", "'document_signed'", "'document_deleted'"} {
		if !strings.Contains(content, event) {
			t.Errorf("event_type_enum missing %s", event)
		}
	}
}

func TestCreateWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	path, err := migrate.Create(dir, "Add Signer Index!", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260302103000_add_signer_index.sql" {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.Validate(migrate.Source(dir)); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := migrate.Create(dir, "add signer index", now); err == nil {
		t.Fatalf("expected existing migration not to be overwritten")
	}
	if _, err := migrate.Create(dir, "!!!", now); err == nil {
		t.Fatalf("expected empty slug to be rejected")
	}
}

func TestValidateRejectsBrokenFiles(t *testing.T) {
	cases := map[string]string{
		"create_things.sql":                 "-- +goose Up\n-- +goose Down\n",
		"20260301000000_no_down.sql":        "-- +goose Up\nSELECT 1;\n",
		"20260301000000_reversed.sql":       "-- +goose Down\n-- +goose Up\n",
		"20260301000000_open_statement.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		if err := migrate.Validate(migrate.Source(dir)); err == nil {
			t.Errorf("expected %s to be rejected", name)
		}
	}
}

func TestValidateRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	for _, name := range []string{"20260301000000_a.sql", "20260301000000_b.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := migrate.Validate(migrate.Source(dir)); err == nil {
		t.Fatalf("expected duplicate versions to be rejected")
	}
}

func TestSlug(t *testing.T) {
	if got := migrate.Slug("  Documents: Add signer_email INDEX "); got != "documents_add_signer_email_index" {
		t.Fatalf("unexpected slug %q", got)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file found for %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
