package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGormSQLite(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), db))

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	require.NoError(t, Close(db))
}

func TestNewGormUnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "mongodb", DSN: "mongodb://localhost"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestNormalizeMySQLDSN(t *testing.T) {
	tests := []struct {
		name, in, user, pass, want string
	}{
		{"native dsn untouched", "root:pw@tcp(127.0.0.1:3306)/toob?parseTime=true", "", "", "root:pw@tcp(127.0.0.1:3306)/toob?parseTime=true"},
		{"url form", "mysql://root:pw@db:3306/toob", "", "", "root:pw@tcp(db:3306)/toob?charset=utf8mb4&parseTime=true"},
		{"jdbc prefix", "jdbc:mysql://root@db:3306/toob?charset=latin1", "", "", "root@tcp(db:3306)/toob?charset=latin1&parseTime=true"},
		{"overrides", "mysql://root:pw@db:3306/toob", "app", "secret", "app:secret@tcp(db:3306)/toob?charset=utf8mb4&parseTime=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMySQLDSN(tt.in, tt.user, tt.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "postgres://app:****@db:5432/toob", MaskDSN("postgres://app:secret@db:5432/toob"))
	assert.Equal(t, "root:****@tcp(db:3306)/toob", MaskDSN("root:pw@tcp(db:3306)/toob"))
	assert.Equal(t, "file:toob.db", MaskDSN("file:toob.db"))
}
