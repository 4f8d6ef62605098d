package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reactionrace/internal/records"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := Connect(dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM race_records")
		database.Close()
	})
	return database
}

func getSQLiteDB(t *testing.T) *DB {
	t.Helper()
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "race.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// backends runs fn against SQLite always and PostgreSQL when configured.
func backends(t *testing.T, fn func(t *testing.T, d *DB)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, getSQLiteDB(t)) })
	t.Run("postgres", func(t *testing.T) { fn(t, getTestDB(t)) })
}

func ptr(f float64) *float64 { return &f }

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, d *DB) {
	t.Helper()
	recs := []records.Record{
		{GameID: "game_AAAAAA", PlayerName: "Alice", Score: 40, ReactionTime: ptr(180.5), CreatedAt: base},
		{GameID: "game_AAAAAA", PlayerName: "Bob", Score: 25, CreatedAt: base},
		{GameID: "game_BBBBBB", PlayerName: "Alice", Score: 25, ReactionTime: ptr(150), CreatedAt: base.Add(time.Minute)},
		{GameID: "game_BBBBBB", PlayerName: "Carol", Score: 55, ReactionTime: ptr(140), CreatedAt: base.Add(time.Minute)},
	}
	if err := d.SaveBatch(context.Background(), recs); err != nil {
		t.Fatalf("SaveBatch() error: %v", err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Error("Open() should reject unknown drivers")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	backends(t, func(t *testing.T, d *DB) {
		if err := d.Migrate(); err != nil {
			t.Errorf("second Migrate() error: %v", err)
		}
		if err := d.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error: %v", err)
		}
	})
}

func TestRebind(t *testing.T) {
	d := &DB{driver: DriverSQLite}
	got := d.rebind("SELECT 1 WHERE a = $1 AND b = $2 LIMIT $10")
	if want := "SELECT 1 WHERE a = ? AND b = ? LIMIT ?"; got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}
	pg := &DB{driver: DriverPostgres}
	if got := pg.rebind("a = $1"); got != "a = $1" {
		t.Errorf("postgres rebind() = %q, want unchanged", got)
	}
}

func TestSaveAndHistory(t *testing.T) {
	backends(t, func(t *testing.T, d *DB) {
		ctx := context.Background()
		rec := records.Record{GameID: "game_CCCCCC", PlayerName: "Dan", Score: 12, ReactionTime: ptr(210.25), CreatedAt: base}
		if err := d.Save(ctx, rec); err != nil {
			t.Fatalf("Save() error: %v", err)
		}

		got, err := d.PlayerHistory(ctx, "Dan", 10)
		if err != nil {
			t.Fatalf("PlayerHistory() error: %v", err)
		}
		want := []records.Record{rec}
		if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(records.Record{}, "ID")); diff != "" {
			t.Errorf("PlayerHistory() mismatch (-want +got):\n%s", diff)
		}
		if got[0].ID == "" {
			t.Error("saved record should have an id")
		}
	})
}

func TestLeaderboard(t *testing.T) {
	backends(t, func(t *testing.T, d *DB) {
		seed(t, d)

		top, err := d.Leaderboard(context.Background(), 3)
		if err != nil {
			t.Fatalf("Leaderboard() error: %v", err)
		}
		var names []string
		for _, rec := range top {
			names = append(names, rec.PlayerName)
		}
		if diff := cmp.Diff([]string{"Carol", "Alice", "Bob"}, names); diff != "" {
			t.Errorf("Leaderboard() order mismatch (-want +got):\n%s", diff)
		}
		if top[2].ReactionTime != nil {
			t.Errorf("Bob reaction_time = %v, want nil", *top[2].ReactionTime)
		}
	})
}

func TestPlayerHistory_NewestFirst(t *testing.T) {
	backends(t, func(t *testing.T, d *DB) {
		seed(t, d)

		history, err := d.PlayerHistory(context.Background(), "Alice", 0)
		if err != nil {
			t.Fatalf("PlayerHistory() error: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("history length = %d, want 2", len(history))
		}
		if history[0].GameID != "game_BBBBBB" {
			t.Errorf("newest game = %q, want %q", history[0].GameID, "game_BBBBBB")
		}

		empty, err := d.PlayerHistory(context.Background(), "Nobody", 5)
		if err != nil {
			t.Fatalf("PlayerHistory() error: %v", err)
		}
		if empty == nil || len(empty) != 0 {
			t.Errorf("unknown player history = %v, want empty slice", empty)
		}
	})
}

func TestStats(t *testing.T) {
	backends(t, func(t *testing.T, d *DB) {
		seed(t, d)

		stats, err := d.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats() error: %v", err)
		}
		if want := (records.Stats{TotalRecords: 4, TotalPlayers: 3}); stats != want {
			t.Errorf("Stats() = %+v, want %+v", stats, want)
		}
	})
}
