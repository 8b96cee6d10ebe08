package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func openAt(t *testing.T, path string) *DB {
	t.Helper()
	database, err := New(path, nil)
	if err != nil {
		t.Fatalf("New(%q) error = %v", path, err)
	}
	return database
}

func insertScene(t *testing.T, conn *sql.DB, id string) {
	t.Helper()
	_, err := conn.Exec(`
		INSERT INTO scenes (id, name, path, fps, frame_start, frame_end, created_at)
		VALUES (?, 'flyby', '/scenes/' || ? || '.yaml', 24, 1, 250, datetime('now'))`, id, id)
	if err != nil {
		t.Fatalf("insert scene %s error = %v", id, err)
	}
}

func insertJob(t *testing.T, conn *sql.DB, id, sceneID, status string) {
	t.Helper()
	_, err := conn.Exec(`
		INSERT INTO jobs (id, scene_id, status, object_name, boundary_name, tempo, output_dir, project_name, created_at, updated_at)
		VALUES (?, ?, ?, 'Cube', 'Bounds', 120, '/out', 'mix', datetime('now'), datetime('now'))`, id, sceneID, status)
	if err != nil {
		t.Fatalf("insert job %s error = %v", id, err)
	}
}

func TestNew_Schema(t *testing.T) {
	database := openAt(t, filepath.Join(t.TempDir(), "nested", "autoitem.db"))
	defer database.Close()

	for _, table := range []string{"scenes", "jobs", "config", "_migrations"} {
		var name string
		err := database.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	var journalMode string
	if err := database.Conn().QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode error = %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}
}

func TestNew_AppliesEveryMigrationOnce(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "autoitem.db")
	openAt(t, path).Close()
	database := openAt(t, path)
	defer database.Close()

	var count int
	if err := database.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations error = %v", err)
	}
	if count != len(entries) {
		t.Errorf("migration count = %d, want %d", count, len(entries))
	}
}

func TestNew_FailsRunningExportsFromPreviousProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoitem.db")

	first := openAt(t, path)
	insertScene(t, first.Conn(), "scene-1")
	insertJob(t, first.Conn(), "running-job", "scene-1", "running")
	insertJob(t, first.Conn(), "done-job", "scene-1", "completed")
	first.Close()

	second := openAt(t, path)
	defer second.Close()

	tests := []struct {
		id     string
		status string
		errMsg sql.NullString
	}{
		{id: "running-job", status: "failed", errMsg: sql.NullString{String: "interrupted by restart", Valid: true}},
		{id: "done-job", status: "completed"},
	}
	for _, tc := range tests {
		var status string
		var errMsg sql.NullString
		err := second.Conn().QueryRow("SELECT status, error FROM jobs WHERE id = ?", tc.id).Scan(&status, &errMsg)
		if err != nil {
			t.Fatalf("query job %s error = %v", tc.id, err)
		}
		if status != tc.status {
			t.Errorf("job %s status = %s, want %s", tc.id, status, tc.status)
		}
		if errMsg != tc.errMsg {
			t.Errorf("job %s error = %+v, want %+v", tc.id, errMsg, tc.errMsg)
		}
	}
}

func TestNew_DeletingSceneDropsItsJobs(t *testing.T) {
	database := openAt(t, filepath.Join(t.TempDir(), "autoitem.db"))
	defer database.Close()

	insertScene(t, database.Conn(), "scene-1")
	insertScene(t, database.Conn(), "scene-2")
	insertJob(t, database.Conn(), "job-1", "scene-1", "completed")
	insertJob(t, database.Conn(), "job-2", "scene-2", "completed")

	if _, err := database.Conn().Exec("DELETE FROM scenes WHERE id = 'scene-1'"); err != nil {
		t.Fatalf("delete scene error = %v", err)
	}

	var remaining []string
	rows, err := database.Conn().Query("SELECT id FROM jobs ORDER BY id")
	if err != nil {
		t.Fatalf("query jobs error = %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan error = %v", err)
		}
		remaining = append(remaining, id)
	}
	if len(remaining) != 1 || remaining[0] != "job-2" {
		t.Errorf("jobs after delete = %v, want [job-2]", remaining)
	}
}

func TestNew_RejectsJobForUnknownScene(t *testing.T) {
	database := openAt(t, filepath.Join(t.TempDir(), "autoitem.db"))
	defer database.Close()

	_, err := database.Conn().Exec(`
		INSERT INTO jobs (id, scene_id, status, object_name, boundary_name, tempo, output_dir, project_name, created_at, updated_at)
		VALUES ('orphan', 'missing', 'running', 'Cube', 'Bounds', 120, '/out', 'mix', datetime('now'), datetime('now'))`)
	if err == nil {
		t.Fatal("insert job for missing scene succeeded, want foreign key error")
	}
}
