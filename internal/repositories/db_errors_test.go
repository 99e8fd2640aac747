package repositories_test

import (
	"context"
	"errors"
	"testing"

	"brickshelf/internal/models"
	"brickshelf/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgresMock returns a GORM handle speaking the postgres dialect over sqlmock.
func newPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestCreateSet_PostgresErrors(t *testing.T) {
	tests := []struct {
		name     string
		pgErr    *pgconn.PgError
		wantKind error
	}{
		{
			name:     "unique violation",
			pgErr:    &pgconn.PgError{Code: pgerrcode.UniqueViolation, Message: `duplicate key value violates unique constraint "sets_pkey"`},
			wantKind: repositories.ErrDuplicateKey,
		},
		{
			name:     "foreign key violation",
			pgErr:    &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, Message: `insert or update on table "sets" violates foreign key constraint "fk_sets_theme"`},
			wantKind: repositories.ErrForeignKey,
		},
		{
			name:     "value too long",
			pgErr:    &pgconn.PgError{Code: pgerrcode.StringDataRightTruncationDataException, Message: "value too long for type character varying(255)"},
			wantKind: repositories.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newPostgresMock(t)
			repo := repositories.NewGORMCatalogRepository(db)

			mock.ExpectExec(`INSERT INTO "sets"`).WillReturnError(tt.pgErr)

			err := repo.CreateSet(context.Background(), &models.Set{SetNum: "1-1", Name: "x", Year: 2000, ThemeID: 1})

			var ce *repositories.ConstraintError
			require.True(t, errors.As(err, &ce))
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.pgErr.Message, ce.Message)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateSet_PostgresOtherErrorPassesThrough(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := repositories.NewGORMCatalogRepository(db)

	connErr := &pgconn.PgError{Code: pgerrcode.ConnectionFailure, Message: "connection failure"}
	mock.ExpectExec(`INSERT INTO "sets"`).WillReturnError(connErr)

	err := repo.CreateSet(context.Background(), &models.Set{SetNum: "1-1", Name: "x", Year: 2000, ThemeID: 1})

	var ce *repositories.ConstraintError
	assert.False(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, connErr)
}

func TestDeleteSet_PostgresNoRows(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := repositories.NewGORMCatalogRepository(db)

	mock.ExpectExec(`DELETE FROM "sets"`).WithArgs("1-1").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteSet(context.Background(), "1-1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSet_PostgresNotNullViolation(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := repositories.NewGORMCatalogRepository(db)

	mock.ExpectExec(`UPDATE "sets" SET`).WillReturnError(&pgconn.PgError{Code: pgerrcode.NotNullViolation, Message: `null value in column "name" violates not-null constraint`})

	name := "renamed"
	err := repo.UpdateSet(context.Background(), "1-1", models.SetPatch{Name: &name})
	assert.ErrorIs(t, err, repositories.ErrInvalidValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSetsByTheme_PostgresUsesILike(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := repositories.NewGORMCatalogRepository(db)

	mock.ExpectQuery(`"Theme"\."name" ILIKE \$1`).
		WithArgs("%städte%").
		WillReturnRows(sqlmock.NewRows([]string{"set_num"}))

	sets, err := repo.GetSetsByTheme(context.Background(), "STÄDTE")
	require.NoError(t, err)
	assert.Empty(t, sets)
	assert.NoError(t, mock.ExpectationsWereMet())
}
