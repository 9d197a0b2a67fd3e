package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_seed.up.sql":   {Data: []byte("INSERT 1;")},
		"migrations/0001_schema.up.sql": {Data: []byte("CREATE 1;")},
		"migrations/0001_schema.down.sql": {Data: []byte("DROP 1;")},
		"migrations/notes.txt":          {Data: []byte("ignore me")},
	}

	names, err := ListMigrations(fsys, "migrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_schema.up.sql", "0002_seed.up.sql"}, names)
}

func TestListMigrations_MissingDir(t *testing.T) {
	_, err := ListMigrations(fstest.MapFS{}, "migrations")
	assert.Error(t, err)
}
