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

func TestBuildConnectionString(t *testing.T) {
	ledger := buildConnectionString("/tmp/ledger.db", ProfileLedger)
	assert.Contains(t, ledger, "journal_mode(WAL)")
	assert.Contains(t, ledger, "synchronous(FULL)")
	assert.Contains(t, ledger, "foreign_keys(1)")

	cache := buildConnectionString("/tmp/cache.db", ProfileCache)
	assert.Contains(t, cache, "synchronous(OFF)")
}

func TestNewAndMigrate(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{NameLedger, NameConfig, NameHistory} {
		t.Run(name, func(t *testing.T) {
			db, err := New(Config{Path: filepath.Join(dir, name+".db"), Profile: ProfileStandard, Name: name})
			require.NoError(t, err)
			defer db.Close()

			require.NoError(t, db.Migrate())
			// Idempotent
			require.NoError(t, db.Migrate())
			require.NoError(t, db.QuickCheck(context.Background()))
		})
	}
}

func TestMigrateConn_UnknownName(t *testing.T) {
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	assert.Error(t, MigrateConn(conn, "universe"))
	assert.NoError(t, MigrateConn(conn, NameLedger))
}

func TestWithTransaction(t *testing.T) {
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	_, err = conn.Exec("CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	err = WithTransaction(conn, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO t (v) VALUES (1)")
		return err
	})
	require.NoError(t, err)

	err = WithTransaction(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO t (v) VALUES (2)"); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestVacuumInto(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(dir, "ledger.db"), Profile: ProfileLedger, Name: NameLedger})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	dest := filepath.Join(dir, "copy.db")
	require.NoError(t, db.VacuumInto(context.Background(), dest))
	assert.FileExists(t, dest)
}
