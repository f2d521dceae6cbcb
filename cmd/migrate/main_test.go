package main

import (
	"bytes"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
)

type fakeMigrator struct {
	upCalls    int
	downCalls  int
	stepsCalls []int
	forceCalls []int
	version    uint
	dirty      bool
	versionErr error
	upErr      error
}

func (f *fakeMigrator) Up() error                    { f.upCalls++; return f.upErr }
func (f *fakeMigrator) Down() error                  { f.downCalls++; return nil }
func (f *fakeMigrator) Steps(n int) error            { f.stepsCalls = append(f.stepsCalls, n); return nil }
func (f *fakeMigrator) Force(v int) error            { f.forceCalls = append(f.forceCalls, v); return nil }
func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.versionErr }

// useFakeMigrator routes newMigrator to fm and records the source URL.
func useFakeMigrator(t *testing.T, fm *fakeMigrator) *string {
	t.Helper()
	prevWith := withPostgresInstance
	prevNew := newMigrateWithDB
	t.Cleanup(func() {
		withPostgresInstance = prevWith
		newMigrateWithDB = prevNew
	})
	var source string
	withPostgresInstance = func(*sql.DB) (migratedb.Driver, error) { return nil, nil }
	newMigrateWithDB = func(sourceURL, _ string, _ migratedb.Driver) (migrator, error) {
		source = sourceURL
		return fm, nil
	}
	return &source
}

func testDeps(t *testing.T, out *bytes.Buffer) deps {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return deps{
		loadEnv: func(...string) error { return nil },
		getenv: func(k string) string {
			if k == "DATABASE_URL" {
				return "postgres://example"
			}
			return ""
		},
		openDB: func(string, string) (*sql.DB, error) { return db, nil },
		out:    out,
	}
}

func execute(d deps, args ...string) error {
	cmd := newRootCmd(d)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestUp_AllPending(t *testing.T) {
	fm := &fakeMigrator{}
	source := useFakeMigrator(t, fm)
	var out bytes.Buffer

	if err := execute(testDeps(t, &out), "up"); err != nil {
		t.Fatalf("up: %v", err)
	}
	if fm.upCalls != 1 {
		t.Fatalf("expected Up called once, got %d", fm.upCalls)
	}
	if *source != "file://db/migrations" {
		t.Fatalf("unexpected source %q", *source)
	}
	if !strings.Contains(out.String(), "Migration up completed successfully") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestUp_NoChange(t *testing.T) {
	fm := &fakeMigrator{upErr: migrate.ErrNoChange}
	useFakeMigrator(t, fm)
	var out bytes.Buffer

	if err := execute(testDeps(t, &out), "up"); err != nil {
		t.Fatalf("up: %v", err)
	}
	if !strings.Contains(out.String(), "No migrations to apply") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestDown_StepsAndCustomPath(t *testing.T) {
	fm := &fakeMigrator{}
	source := useFakeMigrator(t, fm)
	var out bytes.Buffer

	if err := execute(testDeps(t, &out), "down", "2", "--path", "/srv/migrations"); err != nil {
		t.Fatalf("down: %v", err)
	}
	if len(fm.stepsCalls) != 1 || fm.stepsCalls[0] != -2 {
		t.Fatalf("expected Steps(-2), got %#v", fm.stepsCalls)
	}
	if *source != "file:///srv/migrations" {
		t.Fatalf("unexpected source %q", *source)
	}
}

func TestForce(t *testing.T) {
	fm := &fakeMigrator{}
	useFakeMigrator(t, fm)
	var out bytes.Buffer

	if err := execute(testDeps(t, &out), "force", "12"); err != nil {
		t.Fatalf("force: %v", err)
	}
	if len(fm.forceCalls) != 1 || fm.forceCalls[0] != 12 {
		t.Fatalf("expected Force(12), got %#v", fm.forceCalls)
	}
	if err := execute(testDeps(t, &out), "force", "-3"); err == nil {
		t.Fatalf("expected error for negative version")
	}
}

func TestRepair(t *testing.T) {
	clean := &fakeMigrator{version: 3}
	if msg, err := repair(clean); err != nil || msg != "Database is not dirty (no force needed)" {
		t.Fatalf("unexpected %q, %v", msg, err)
	}
	dirty := &fakeMigrator{version: 3, dirty: true}
	if msg, err := repair(dirty); err != nil || msg != "Forced dirty database to version 3" {
		t.Fatalf("unexpected %q, %v", msg, err)
	}
	if len(dirty.forceCalls) != 1 || dirty.forceCalls[0] != 3 {
		t.Fatalf("expected Force(3), got %#v", dirty.forceCalls)
	}
}

func TestVersion_NilVersion(t *testing.T) {
	fm := &fakeMigrator{versionErr: migrate.ErrNilVersion}
	useFakeMigrator(t, fm)
	var out bytes.Buffer

	if err := execute(testDeps(t, &out), "version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "No migrations applied") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestMissingDatabaseURL(t *testing.T) {
	d := testDeps(t, &bytes.Buffer{})
	d.getenv = func(string) string { return "" }
	d.openDB = func(string, string) (*sql.DB, error) {
		t.Fatalf("openDB should not be called")
		return nil, nil
	}
	if err := execute(d, "up"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenDBError(t *testing.T) {
	d := testDeps(t, &bytes.Buffer{})
	d.openDB = func(string, string) (*sql.DB, error) { return nil, sql.ErrConnDone }
	if err := execute(d, "up"); !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected ErrConnDone, got %v", err)
	}
}

func TestApply(t *testing.T) {
	fm := &fakeMigrator{}
	if _, err := apply(fm, "sideways", 0); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := apply(fm, "down", 0); err != nil || fm.downCalls != 1 {
		t.Fatalf("expected Down, got err=%v calls=%d", err, fm.downCalls)
	}
	if _, err := apply(fm, "up", 2); err != nil || len(fm.stepsCalls) != 1 || fm.stepsCalls[0] != 2 {
		t.Fatalf("expected Steps(2), got err=%v calls=%#v", err, fm.stepsCalls)
	}
}

func TestNewMigrator_FactoryErrorPaths(t *testing.T) {
	prevWith := withPostgresInstance
	prevNew := newMigrateWithDB
	defer func() {
		withPostgresInstance = prevWith
		newMigrateWithDB = prevNew
	}()

	withPostgresInstance = func(*sql.DB) (migratedb.Driver, error) { return nil, sql.ErrConnDone }
	if _, err := newMigrator(nil, "db/migrations"); err == nil {
		t.Fatalf("expected error")
	}

	withPostgresInstance = func(*sql.DB) (migratedb.Driver, error) { return nil, nil }
	newMigrateWithDB = func(string, string, migratedb.Driver) (migrator, error) { return nil, sql.ErrConnDone }
	if _, err := newMigrator(nil, "db/migrations"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefaultDeps_NonNil(t *testing.T) {
	d := defaultDeps()
	if d.getenv == nil || d.openDB == nil || d.loadEnv == nil || d.out == nil {
		t.Fatalf("expected default deps to be populated: %#v", d)
	}
}
