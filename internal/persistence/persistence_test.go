package persistence

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, migrationsDir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_uploads.sql"}, names)

	users, err := fs.ReadFile(migrationFS, migrationsDir+"/00001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(users), "-- +goose Up")
	assert.Contains(t, string(users), "username      VARCHAR(255) UNIQUE NOT NULL")
	assert.Contains(t, string(users), "email         VARCHAR(255) UNIQUE NOT NULL")
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, migrate(context.Background(), nil, zap.NewNop()))
	assert.Equal(t, migrationsDir, gotDir)
}

func TestMigrate_PropagatesError(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("syntax error at or near")
	}

	err := migrate(context.Background(), nil, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migrations")
}

func TestRunMigrations_NilPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

type scriptedPinger struct {
	calls atomic.Int32
	fail  func(call int32) bool
}

func (p *scriptedPinger) Ping(context.Context) error {
	n := p.calls.Add(1)
	if p.fail(n) {
		return errors.New("connection refused")
	}
	return nil
}

func TestWatchHealth_ReportsAfterConsecutiveFailures(t *testing.T) {
	p := &scriptedPinger{fail: func(int32) bool { return true }}

	ch := WatchHealth(context.Background(), p, 5*time.Millisecond, 3, zap.NewNop())

	select {
	case err, ok := <-ch:
		require.True(t, ok)
		assert.ErrorContains(t, err, "after 3 probes")
		assert.Equal(t, int32(3), p.calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reported")
	}
}

func TestWatchHealth_RecoveryResetsCounter(t *testing.T) {
	// fail, fail, ok, fail, fail, fail
	p := &scriptedPinger{fail: func(n int32) bool { return n != 3 }}

	ch := WatchHealth(context.Background(), p, 5*time.Millisecond, 3, zap.NewNop())

	select {
	case err := <-ch:
		require.Error(t, err)
		assert.Equal(t, int32(6), p.calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reported")
	}
}

func TestWatchHealth_StopsWithContext(t *testing.T) {
	p := &scriptedPinger{fail: func(int32) bool { return false }}
	ctx, cancel := context.WithCancel(context.Background())

	ch := WatchHealth(ctx, p, 5*time.Millisecond, 3, zap.NewNop())
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchHealth_Disabled(t *testing.T) {
	ch := WatchHealth(context.Background(), &scriptedPinger{fail: func(int32) bool { return true }}, 0, 3, zap.NewNop())
	_, ok := <-ch
	assert.False(t, ok)
}

func TestPostgres_NilSafe(t *testing.T) {
	var pg *Postgres
	assert.Error(t, pg.Ping(context.Background()))
	assert.Nil(t, pg.PoolHandle())
	pg.Close()
}
