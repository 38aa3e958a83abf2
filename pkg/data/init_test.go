package data

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitDuckDB(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "test-init-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := InitDuckDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize DB: %v", err)
	}
	defer db.Close()

	var tableCount int
	err = db.QueryRow(`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'titles'`).Scan(&tableCount)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}

	if tableCount != 1 {
		t.Errorf("Expected 1 table, got %d", tableCount)
	}
}

func TestInitDBCreatesDirectory(t *testing.T) {
	for _, driver := range []string{DriverDuckDB, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

			db, err := InitDB(driver, dbPath)
			if err != nil {
				t.Fatalf("Failed to initialize DB with nested path: %v", err)
			}
			defer db.Close()

			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				t.Error("DB file was not created")
			}
		})
	}
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	if _, err := InitDB("postgres", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Error("Expected an error for an unsupported driver")
	}
}
