package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/lamdn/course-registration-api/internal/models"
)

func cartDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "course_id", "status", "price", "created_at", "updated_at", "paid_at", "subject_name", "course_price"})
}

func TestCartRepositoryListMine(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCartRepository(db)

	now := time.Now()
	rows := cartDetailRows().
		AddRow("cm1", int64(7), int64(101), models.StatusSelected, int64(1000000), now, now, nil, "Giải tích 1", int64(1000000)).
		AddRow("cm2", int64(7), int64(102), models.StatusPaid, int64(100000), now, now, now, "Triết học", int64(100000))
	mock.ExpectQuery("FROM class_members cm").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	items, err := repo.ListMine(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Giải tích 1", items[0].SubjectName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepositoryConfirmSelected(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCartRepository(db)

	mock.ExpectExec("UPDATE class_members SET status").
		WithArgs(int64(7), models.StatusConfirmed, sqlmock.AnyArg(), models.StatusSelected).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.ConfirmSelected(context.Background(), 7)
	require.NoError(t, err)
	require.EqualValues(t, 3, affected)

	// Second call with nothing selected touches no rows.
	mock.ExpectExec("UPDATE class_members SET status").
		WithArgs(int64(7), models.StatusConfirmed, sqlmock.AnyArg(), models.StatusSelected).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err = repo.ConfirmSelected(context.Background(), 7)
	require.NoError(t, err)
	require.Zero(t, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepositoryPayPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCartRepository(db)

	now := time.Now()
	pendingSet := pq.StringArray{string(models.StatusSelected), string(models.StatusConfirmed)}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM class_members WHERE user_id = .+ FOR UPDATE").
		WithArgs(int64(7), pendingSet).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "status", "price", "created_at", "updated_at", "paid_at"}).
			AddRow("cm1", int64(7), int64(101), models.StatusConfirmed, int64(1000000), now, now, nil).
			AddRow("cm2", int64(7), int64(102), models.StatusSelected, int64(100000), now, now, nil))
	mock.ExpectExec("UPDATE class_members SET status").
		WithArgs(int64(7), models.StatusPaid, sqlmock.AnyArg(), pendingSet).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	count, total, err := repo.PayPending(context.Background(), 7, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.EqualValues(t, 1100000, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepositoryPayPendingNothingToPay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCartRepository(db)

	pendingSet := pq.StringArray{string(models.StatusSelected), string(models.StatusConfirmed)}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM class_members WHERE user_id = .+ FOR UPDATE").
		WithArgs(int64(7), pendingSet).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "status", "price", "created_at", "updated_at", "paid_at"}))
	mock.ExpectCommit()

	count, total, err := repo.PayPending(context.Background(), 7, time.Now())
	require.NoError(t, err)
	require.Zero(t, count)
	require.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCartRepository(db)

	mock.ExpectExec("DELETE FROM class_members").
		WithArgs(int64(7), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 7, 101))
	require.NoError(t, mock.ExpectationsWereMet())
}
