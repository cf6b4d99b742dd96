package store

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/toko?sslmode=disable", migrateURL("postgres://u:p@db:5432/toko?sslmode=disable"))
	require.Equal(t, "pgx5://db/toko", migrateURL("postgresql://db/toko"))
	require.Equal(t, "pgx5://db/toko", migrateURL("pgx5://db/toko"))
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	require.Equal(t, len(ups), len(downs))
}
