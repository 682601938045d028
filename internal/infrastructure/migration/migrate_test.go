package migration

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesledger/migrations"
)

func TestDriverURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/sales?sslmode=disable", DriverURL("postgres://u:p@db:5432/sales?sslmode=disable"))
	assert.Equal(t, "pgx5://db/sales", DriverURL("postgresql://db/sales"))
	assert.Equal(t, "pgx5://db/sales", DriverURL("pgx5://db/sales"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations.FS, "*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
