package data

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureParam(t *testing.T) {
	assert.Equal(t, "u:p@/db?parseTime=true", ensureParam("u:p@/db", "parseTime", "true"))
	assert.Equal(t, "u:p@/db?a=1&parseTime=true", ensureParam("u:p@/db?a=1", "parseTime", "true"))
	assert.Equal(t, "u:p@/db?parseTime=false", ensureParam("u:p@/db?parseTime=false", "parseTime", "true"))
}

func TestGetMySQLDSN(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	_, err := GetMySQLDSN()
	assert.Error(t, err)

	t.Setenv("MYSQL_DSN", "ledger:pw@tcp(db:3306)/ledger")
	dsn, err := GetMySQLDSN()
	require.NoError(t, err)
	assert.Equal(t, "ledger:pw@tcp(db:3306)/ledger", dsn)
}

func TestSettingsCache(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:settings?mode=memory&cache=shared"), GormConfig(nil))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Setting{}))

	require.NoError(t, db.Create(&Setting{Name: "rate_limit_rps", Value: "5", Active: 1}).Error)
	require.NoError(t, db.Create(&Setting{Name: "retired", Value: "x", Active: 0}).Error)
	require.NoError(t, LoadSettings(db))

	assert.Equal(t, "5", GetSetting("rate_limit_rps"))
	assert.Empty(t, GetSetting("retired"))

	require.NoError(t, SetSetting(db, "rate_limit_rps", "9"))
	assert.Equal(t, "9", GetSetting("rate_limit_rps"))

	require.NoError(t, LoadSettings(db))
	assert.Equal(t, "9", GetSetting("rate_limit_rps"))
}
