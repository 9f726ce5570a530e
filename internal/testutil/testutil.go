// Package testutil 测试用的数据库与数据构造
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"TeamPulse/internal/config"
	"TeamPulse/internal/model"
	"TeamPulse/internal/repository/rdb"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupDB 每个测试一个独立的 sqlite 文件库，已完成建表
func SetupDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teampulse_test.db")
	db, err := rdb.Open(config.Database{Driver: "sqlite", DSN: path})
	require.NoError(t, err)
	require.NoError(t, rdb.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = rdb.Close(db) })
	return db
}

// SeedUser 直接插入用户
func SeedUser(t testing.TB, db *gorm.DB, id int64, username string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{ID: id, Username: username, Role: model.RoleMember, LastActive: now, JoinedAt: now}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Karma 读取用户当前积分
func Karma(t testing.TB, db *gorm.DB, id int64) int64 {
	t.Helper()
	var u model.User
	require.NoError(t, db.Select("id", "karma").Where("id = ?", id).Take(&u).Error)
	return u.Karma
}

// Count 统计表行数
func Count(t testing.TB, db *gorm.DB, m any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// FixedClock 固定时间，便于测试日期相关逻辑
func FixedClock(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
