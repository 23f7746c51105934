package casbin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func initTestEnforcer(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Init(db))
}

func TestDefaultApprovalLevelPolicy(t *testing.T) {
	initTestEnforcer(t)

	cases := []struct {
		role    string
		level   int
		allowed bool
	}{
		{"supervisor", 1, true},
		{"supervisor", 2, false},
		{"manager", 2, true},
		{"manager", 3, false},
		{"director", 3, true},
		{"director", 4, false},
		{"technician", 1, false},
	}
	for _, c := range cases {
		ok, err := CanApproveLevel(c.role, c.level)
		require.NoError(t, err)
		assert.Equal(t, c.allowed, ok, "role=%s level=%d", c.role, c.level)
	}

	// admin 走超级用户子句：包括升级超出配置级数后的更高级别
	for level := 1; level <= 5; level++ {
		ok, err := CanApproveLevel("admin", level)
		require.NoError(t, err)
		assert.True(t, ok, "admin level=%d", level)
	}

	ok, err := Enforce("admin", "limits", "manage")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Enforce("technician", "limits", "manage")
	require.NoError(t, err)
	assert.False(t, ok)
}
