package migrate_test

import (
	"io/fs"
	"testing"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/migrate"
	"github.com/jonesrussell/north-cloud/content-mirror/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	t.Parallel()

	up, err := migrate.ParseDirection("up")
	require.NoError(t, err)
	assert.Equal(t, migrate.Up, up)

	_, err = migrate.ParseDirection("sideways")
	require.Error(t, err)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	t.Parallel()

	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations.FS, "*.down.sql")
	require.NoError(t, err)

	assert.Len(t, ups, 2)
	assert.Len(t, downs, len(ups))
}
