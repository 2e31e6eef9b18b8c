package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clinicledger/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add vaccine lots", "add_vaccine_lots"},
		{"Add-Vaccine-Lots", "add_vaccine_lots"},
		{"ADD__LOTS", "add_lots"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Numbering(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add lots", "Lot tracking")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, "000001_add_lots.up.sql", filepath.Base(first.UpPath))
	assert.Equal(t, "000001_add_lots.down.sql", filepath.Base(first.DownPath))

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add_lots")
	assert.Contains(t, string(up), "-- Lot tracking")

	second, err := CreateMigration(dir, "add reorder points", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "000002_add_reorder_points.up.sql", filepath.Base(second.UpPath))
}

func TestCreateMigration_InvalidName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.ErrorContains(t, err, "no usable characters")
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		list, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"000002_b.up.sql", "000002_b.down.sql", "000001_a.up.sql", "README.md", "x.sql"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}

		list, err := ListMigrations(os.DirFS(dir))
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].Name)
		assert.Equal(t, uint(2), list[1].Version)
	})

	t.Run("embedded schema is contiguous", func(t *testing.T) {
		list, err := ListMigrations(migrations.FS)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		for i, m := range list {
			assert.Equal(t, uint(i+1), m.Version, m.Name)
			_, err := migrations.FS.Open(m.UpPath[:len(m.UpPath)-len(".up.sql")] + ".down.sql")
			assert.NoError(t, err, "missing down migration for %s", m.Name)
		}
	})
}
