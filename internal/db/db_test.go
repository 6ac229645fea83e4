package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantcrm/crm-authz/internal/config"
)

func TestOpenSQLite(t *testing.T) {
	gdb, err := Open(config.DB{GormEngine: "sqlite", Path: filepath.Join(t.TempDir(), "open.db")}, true)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
	assert.Equal(t, "sqlite", gdb.Dialector.Name())
}

func TestOpenUnknownEngine(t *testing.T) {
	_, err := Open(config.DB{GormEngine: "oracle"}, false)
	require.ErrorIs(t, err, config.ErrUnknownEngine)
}
