package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutoring-api/internal/models"
)

func newFeeMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func feeConfigColumns() []string {
	return []string{"student_id", "base_price", "gst_applied", "gst_percentage", "gst_amount",
		"scholarship_applied", "scholarship_percentage", "scholarship_amount",
		"one_to_one_applied", "one_to_one_percentage", "one_to_one_amount",
		"subject_discount_amount", "base_amount", "total_amount", "custom_total_applied", "updated_at"}
}

func TestFeeRepositoryGetState(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT student_id, base_price").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows(feeConfigColumns()).
			AddRow("stu-1", 1452.0, false, 0.0, 0.0, false, 0.0, 0.0, false, 0.0, 0.0, 0.0, 1452.0, 1452.0, false, now))
	mock.ExpectQuery("SELECT id, student_id, name, start_date, end_date, fee, position").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "name", "start_date", "end_date", "fee", "position"}).
			AddRow("sub-1", "stu-1", "Math", now, now, 1452.0, 0))
	mock.ExpectQuery("SELECT id, student_id, seq, pay, paid, due_date").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "seq", "pay", "paid", "due_date", "paid_date", "payment_type", "payment_notes", "is_original", "updated_at"}).
			AddRow("ins-1", "stu-1", 0, 1452.0, 0.0, now, nil, "cash", "", true, now))

	state, err := repo.GetState(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1452.0, state.Config.TotalAmount)
	require.Len(t, state.Subjects, 1)
	assert.Equal(t, "Math", state.Subjects[0].Name)
	require.Len(t, state.Installments, 1)
	assert.False(t, state.Installments[0].IsSettled())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryGetStateMissingConfig(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectQuery("SELECT student_id, base_price").
		WithArgs("stu-404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetState(context.Background(), "stu-404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositorySaveStateReplacesEverything(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO fee_configs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM subject_assignments WHERE student_id").
		WithArgs("stu-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO subject_assignments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM installments WHERE student_id").
		WithArgs("stu-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO installments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO installments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	state := &models.FeeState{
		Config:   models.FeeConfig{BasePrice: 1452, TotalAmount: 80000},
		Subjects: []models.SubjectAssignment{{Name: "Math", Fee: 80000}},
		Installments: []models.Installment{
			{Pay: 40000, DueDate: time.Now()},
			{Pay: 40000, DueDate: time.Now().AddDate(0, 1, 0)},
		},
	}
	err := repo.SaveState(context.Background(), "stu-1", state)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", state.Config.StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositorySaveStateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO fee_configs").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.SaveState(context.Background(), "stu-1", &models.FeeState{})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryReplaceInstallmentsRenumbersSeq(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM installments WHERE student_id").
		WithArgs("stu-1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO installments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO installments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	plan := []models.Installment{
		{ID: "ins-1", Seq: 5, Pay: 100, DueDate: time.Now()},
		{ID: "ins-2", Seq: 9, Pay: 200, DueDate: time.Now().AddDate(0, 1, 0)},
	}
	require.NoError(t, repo.ReplaceInstallments(context.Background(), "stu-1", plan))
	assert.NoError(t, mock.ExpectationsWereMet())
}
