package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	history, err := Schema(NameHistory)
	require.NoError(t, err)
	assert.Contains(t, history, "daily_prices")

	cache, err := Schema(NameCache)
	require.NoError(t, err)
	assert.Contains(t, cache, "stats_cache")

	_, err = Schema("ledger")
	assert.Error(t, err)
}

func TestNewAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := New(Config{Path: path, Name: NameHistory})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileStandard, db.Profile())
	assert.Equal(t, path, db.Path())

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate(), "migration is idempotent")

	_, err = db.Conn().Exec("INSERT INTO daily_prices (symbol, date, close, imported_at) VALUES ('A', '2024-01-02', 1.5, 0)")
	require.NoError(t, err)

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Positive(t, stats.PageCount)
}

func TestBuildConnectionString(t *testing.T) {
	cache := buildConnectionString("/tmp/cache.db", ProfileCache)
	assert.Contains(t, cache, "/tmp/cache.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, cache, "synchronous(OFF)")

	mem := buildConnectionString("file:test?mode=memory", ProfileStandard)
	assert.Contains(t, mem, "file:test?mode=memory&_pragma=journal_mode(WAL)")
	assert.Contains(t, mem, "synchronous(NORMAL)")
}

func TestWithTransaction(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "cache.db"), Profile: ProfileCache, Name: NameCache})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	insert := "INSERT INTO stats_cache (cache_key, payload, created_at, expires_at) VALUES (?, ?, 0, 0)"
	count := func() int {
		var n int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM stats_cache").Scan(&n))
		return n
	}

	boom := errors.New("boom")
	err = WithTransaction(context.Background(), db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(insert, "a", []byte{1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count())

	err = WithTransaction(context.Background(), db.Conn(), func(tx *sql.Tx) error {
		panic("kaboom")
	})
	assert.ErrorContains(t, err, "panic in transaction")

	err = WithTransaction(context.Background(), db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(insert, "b", []byte{2})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count())

	assert.Error(t, WithTransaction(context.Background(), nil, func(*sql.Tx) error { return nil }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err = WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestWALCheckpoint(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "cache.db"), Profile: ProfileCache, Name: NameCache})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.WALCheckpoint(""))
	assert.Error(t, db.WALCheckpoint("SOMETIMES"))
}

func TestIntegrityCheck(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "history.db"), Name: NameHistory})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	assert.NoError(t, db.IntegrityCheck(context.Background()))
	assert.NoError(t, db.QuickCheck(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, db.IntegrityCheck(context.Background()))
}

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(dir, "history.db"), Name: NameHistory})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	_, err = db.Conn().Exec("INSERT INTO daily_prices (symbol, date, close, imported_at) VALUES ('A', '2024-01-02', 1.5, 0)")
	require.NoError(t, err)

	dest := filepath.Join(dir, "backup", "history's copy.db")
	require.NoError(t, db.Backup(context.Background(), dest))

	copyDB, err := New(Config{Path: dest, Name: NameHistory})
	require.NoError(t, err)
	defer copyDB.Close()

	var count int
	require.NoError(t, copyDB.Conn().QueryRow("SELECT COUNT(*) FROM daily_prices").Scan(&count))
	assert.Equal(t, 1, count)

	assert.Error(t, db.Backup(context.Background(), dest), "destination must not exist")
}
