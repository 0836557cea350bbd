package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase wraps a sqlmock connection that also records pings
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("reports a live connection", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing()

		assert.NoError(t, db.Ping())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("surfaces a dead connection", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		assert.EqualError(t, db.Ping(), "connection refused")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mockDB.SetMaxOpenConns(7)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 7, stats.MaxOpenConnections)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
	assert.Zero(t, stats.WaitCount)
}

func TestGormTransactionScope_Execute(t *testing.T) {
	t.Run("binds the transaction and commits", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE sales_invoices SET outstanding_amount = 0`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := NewGormTransactionScope(db.DB).Execute(context.Background(), func(ctx context.Context) error {
			_, ok := TxFromContext(ctx)
			require.True(t, ok)
			return conn(ctx, db.DB).Exec("UPDATE sales_invoices SET outstanding_amount = 0").Error
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when work fails", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		failed := errors.New("rejected")
		err := NewGormTransactionScope(db.DB).Execute(context.Background(), func(context.Context) error {
			return failed
		})

		assert.ErrorIs(t, err, failed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reuses an open transaction", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		scope := NewGormTransactionScope(db.DB)
		nested := false
		err := scope.Execute(context.Background(), func(ctx context.Context) error {
			outer, _ := TxFromContext(ctx)
			return scope.Execute(ctx, func(ctx context.Context) error {
				inner, _ := TxFromContext(ctx)
				nested = inner == outer
				return nil
			})
		})

		require.NoError(t, err)
		assert.True(t, nested)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAllModels_Migrate(t *testing.T) {
	db := setupTempCreditTestDB(t)

	for _, table := range []string{
		"customers", "sales_invoices", "sales_invoice_items",
		"temp_credit_settings", "temp_credit_customer_policies", "temp_credit_salesman_policies",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
