// Package testutil 测试用的内存 sqlite gorm 连接
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"toob-api/internal/core/database"
	"toob-api/internal/feature/user"
	"toob-api/pkg/utils"
)

// NewDB 每个测试一个独立的内存库，已迁移
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          "file:" + utils.NewID() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, user.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
