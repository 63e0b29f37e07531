// Package dbtest 为仓储与应用层测试提供基于内存 SQLite 的数据库
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pizzashop/pkg/db"
)

var seq atomic.Int64

// New 创建独立的内存库并迁移给定模型，测试结束时关闭
func New(t testing.TB, models ...any) *db.DB {
	t.Helper()

	d, err := db.Init(db.Config{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:dbtest_%d?mode=memory&cache=shared", seq.Add(1)),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)

	if len(models) > 0 {
		require.NoError(t, d.AutoMigrate(models...))
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}
