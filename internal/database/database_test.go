package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileupload/internal/pkg/logging"
)

type probe struct {
	ID   uint
	Name string
}

func TestConnectSQLiteInMemory(t *testing.T) {
	db, err := Connect("file::memory:", logging.Discard())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db, &probe{}))

	require.NoError(t, db.Create(&probe{Name: "a"}).Error)
	var got probe
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "a", got.Name)
}
