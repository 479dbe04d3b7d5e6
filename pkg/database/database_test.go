package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "db.sqlite")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_notes.sql": {Data: []byte("ALTER TABLE items ADD COLUMN note TEXT;")},
		"001_create.sql":    {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY);")},
		"README.md":         {Data: []byte("ignored")},
		"nested/003_x.sql":  {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "create", got[0].Name)
	assert.Equal(t, 2, got[1].Version)
	assert.Equal(t, "add_notes", got[1].Name)
}

func TestLoadMigrations_Invalid(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"no version", fstest.MapFS{"create.sql": {Data: []byte("SELECT 1;")}}},
		{"duplicate version", fstest.MapFS{
			"001_a.sql": {Data: []byte("SELECT 1;")},
			"001_b.sql": {Data: []byte("SELECT 1;")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.fsys)
			assert.Error(t, err)
		})
	}
}

func TestMigrator_RunMigrations(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"001_create.sql": {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY);")},
	}

	applied, err := m.RunMigrations(fsys)
	require.NoError(t, err)
	assert.Len(t, applied, 1)

	// Nothing left on a second run
	applied, err = m.RunMigrations(fsys)
	require.NoError(t, err)
	assert.Empty(t, applied)

	fsys["002_add_notes.sql"] = &fstest.MapFile{Data: []byte("ALTER TABLE items ADD COLUMN note TEXT;")}
	pending, err := m.Pending(fsys)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	applied, err = m.RunMigrations(fsys)
	require.NoError(t, err)
	assert.Len(t, applied, 1)

	_, err = db.Exec("INSERT INTO items (id, note) VALUES (1, 'ok')")
	assert.NoError(t, err)
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"001_create.sql": {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE broken (;")},
	}

	applied, err := m.RunMigrations(fsys)
	require.Error(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, 1, applied[0].Version)

	pending, err := m.Pending(fsys)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "broken", pending[0].Name)
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var enabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
	assert.NotEmpty(t, db.Path())
}
