package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/db/dbtest"
)

type widget struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex;size:32"`
}

func count(t *testing.T, d *db.DB) int64 {
	var n int64
	require.NoError(t, d.Model(&widget{}).Count(&n).Error)
	return n
}

func TestTransactionCommits(t *testing.T) {
	d := dbtest.New(t, &widget{})
	ctx := context.Background()

	err := d.Transaction(ctx, func(ctx context.Context) error {
		return db.Conn(ctx, d.DB).Create(&widget{Code: "a"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count(t, d))
}

func TestNestedTransactionJoinsOuterAndRollsBack(t *testing.T) {
	d := dbtest.New(t, &widget{})
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.Transaction(ctx, func(ctx context.Context) error {
		outer, ok := db.TxFromContext(ctx)
		require.True(t, ok)

		if err := db.Conn(ctx, d.DB).Create(&widget{Code: "a"}).Error; err != nil {
			return err
		}
		innerErr := d.Transaction(ctx, func(ctx context.Context) error {
			inner, _ := db.TxFromContext(ctx)
			assert.Same(t, outer, inner)
			return db.Conn(ctx, d.DB).Create(&widget{Code: "b"}).Error
		})
		require.NoError(t, innerErr)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, count(t, d))
}

func TestInsertIgnoreKeepsFirstRow(t *testing.T) {
	d := dbtest.New(t, &widget{})

	require.NoError(t, db.InsertIgnore(d.DB, &widget{Code: "same"}, "code"))
	require.NoError(t, db.InsertIgnore(d.DB, &widget{Code: "same"}, "code"))

	assert.EqualValues(t, 1, count(t, d))
}

func TestForUpdateIsNoOpOnSQLite(t *testing.T) {
	d := dbtest.New(t, &widget{})
	require.NoError(t, d.Create(&widget{Code: "x"}).Error)

	var w widget
	require.NoError(t, db.ForUpdate(d.DB).Where("code = ?", "x").First(&w).Error)
	assert.Equal(t, "x", w.Code)
}
