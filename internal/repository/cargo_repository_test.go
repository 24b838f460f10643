package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

func TestCargoRepo_List(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, price FROM cargo_types ORDER BY name")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(1, "Copper", 150.0).
			AddRow(2, "Maize", 80.0))

	got, err := NewCargoRepo(db).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CargoType{{ID: 1, Name: "Copper", Price: 150}, {ID: 2, Name: "Maize", Price: 80}}, got)
}

func TestCargoRepo_GetByName(t *testing.T) {
	db, mock := newMock(t)
	q := regexp.QuoteMeta("SELECT id, name, price FROM cargo_types WHERE name=? LIMIT 1")
	mock.ExpectQuery(q).WithArgs("Fuel").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).AddRow(3, "Fuel", 40.0))
	mock.ExpectQuery(q).WithArgs("Salt").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}))

	repo := NewCargoRepo(db)
	c, err := repo.GetByName(context.Background(), " Fuel ")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), c.ID)

	_, err = repo.GetByName(context.Background(), "Salt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCargoRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cargo_types")).
		WithArgs("Copper", 150.0).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Copper'"})

	_, err := NewCargoRepo(db).Create(context.Background(), "  Copper ", 150)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCargoRepo_DeleteReferenced(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cargo_types WHERE id=?")).
		WithArgs(1).
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})

	err := NewCargoRepo(db).Delete(context.Background(), 1)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCargoRepo_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cargo_types WHERE id=?")).
		WithArgs(77).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewCargoRepo(db).Delete(context.Background(), 77)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCargoRepo_UpdatePriceMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM cargo_types WHERE id=?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}))

	err := NewCargoRepo(db).UpdatePrice(context.Background(), 5, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
