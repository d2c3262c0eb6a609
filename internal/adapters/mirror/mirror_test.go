package mirror

import (
	"context"
	"courier-service/internal/ports"
	"database/sql"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

func exerciseMirror(t *testing.T, m ports.WorkflowMirror) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := m.Get(ctx, "scannedPackages_s1"); err != nil || ok {
		t.Fatalf("Get on empty mirror = ok %v, err %v; want miss", ok, err)
	}

	if err := m.Set(ctx, "scannedPackages_s1", `[{"id":"a"}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "currentWorkflowStep_s1", "scan"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "currentWorkflowStep_s2", "delivery"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, ok, err := m.Get(ctx, "currentWorkflowStep_s1")
	if err != nil || !ok || v != "scan" {
		t.Fatalf("Get = %q, %v, %v; want scan", v, ok, err)
	}

	// Overwrite keeps last write.
	if err := m.Set(ctx, "currentWorkflowStep_s1", "delivery"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _, _ = m.Get(ctx, "currentWorkflowStep_s1")
	if v != "delivery" {
		t.Fatalf("after overwrite Get = %q, want delivery", v)
	}

	if err := m.Delete(ctx, "scannedPackages_s1", "currentWorkflowStep_s1", "missing_s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "scannedPackages_s1"); ok {
		t.Fatal("scannedPackages_s1 still present after Delete")
	}

	// Other sessions are untouched.
	v, ok, _ = m.Get(ctx, "currentWorkflowStep_s2")
	if !ok || v != "delivery" {
		t.Fatalf("session s2 Get = %q, %v; want delivery", v, ok)
	}

	if err := m.Delete(ctx); err != nil {
		t.Fatalf("Delete with no keys: %v", err)
	}
}

func TestMemoryMirror(t *testing.T) {
	exerciseMirror(t, NewMemoryMirror())
}

func TestSqliteMirror(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)

	if err := InitSqliteSchema(context.Background(), db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	exerciseMirror(t, NewSqliteMirror(db))
}

func TestRedisMirror(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	exerciseMirror(t, NewRedisMirror(client, "courier:", time.Hour))

	if !srv.Exists("courier:currentWorkflowStep_s2") {
		t.Fatal("expected prefixed key in redis")
	}
	if ttl := srv.TTL("courier:currentWorkflowStep_s2"); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}
}

func TestRedisMirrorExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	m := NewRedisMirror(client, "", time.Minute)
	ctx := context.Background()
	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	srv.FastForward(2 * time.Minute)

	if _, ok, err := m.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expired key Get = ok %v, err %v; want miss", ok, err)
	}
}
