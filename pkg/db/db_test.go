package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"glidecomp/pkg/db"
)

func TestDB(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Init() returned nil DB")
	}
	defer d.Close()

	for _, table := range []string{"persistent_state", "checkpoints"} {
		var n int
		if err := d.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("first Init() failed: %v", err)
	}
	d.Close()

	d, err = db.Init(path)
	if err != nil {
		t.Fatalf("second Init() failed: %v", err)
	}
	d.Close()
}

func TestPruneCheckpoints(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "prune.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	now := time.Now().UTC()
	rows := []struct {
		id  string
		age time.Duration
	}{
		{"old", 2 * time.Hour},
		{"fresh", time.Minute},
	}
	for _, r := range rows {
		if _, err := d.Exec("INSERT INTO checkpoints (flight_id, data, points, updated_at) VALUES (?, ?, ?, ?)",
			r.id, []byte{0x80}, 0, now.Add(-r.age).Unix()); err != nil {
			t.Fatal(err)
		}
	}

	n, err := d.PruneCheckpoints(time.Hour)
	if err != nil {
		t.Fatalf("PruneCheckpoints() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}

	var left string
	if err := d.QueryRow("SELECT flight_id FROM checkpoints").Scan(&left); err != nil {
		t.Fatal(err)
	}
	if left != "fresh" {
		t.Errorf("remaining checkpoint = %q, want fresh", left)
	}
}

func TestDB_Memory(t *testing.T) {
	d, err := db.Init(":memory:")
	if err != nil {
		t.Fatalf("Init(:memory:) failed: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec("INSERT INTO persistent_state (key, value) VALUES ('k', 'v')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var v string
	if err := d.QueryRow("SELECT value FROM persistent_state WHERE key='k'").Scan(&v); err != nil || v != "v" {
		t.Errorf("read back %q, %v", v, err)
	}
}

func TestCheckpointStats(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer d.Close()

	count, points, err := d.CheckpointStats()
	if err != nil || count != 0 || points != 0 {
		t.Fatalf("empty stats = %d, %d, %v", count, points, err)
	}

	now := time.Now().Unix()
	for i, n := range []int{40, 60} {
		if _, err := d.Exec("INSERT INTO checkpoints (flight_id, data, points, updated_at) VALUES (?, x'00', ?, ?)", i, n, now); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	count, points, err = d.CheckpointStats()
	if err != nil || count != 2 || points != 100 {
		t.Errorf("stats = %d, %d, %v; want 2, 100", count, points, err)
	}
}
