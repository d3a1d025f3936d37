package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func testAppointment() *model.Appointment {
	return &model.Appointment{
		PatientName:     "Jordan Smith",
		PatientEmail:    "jordan@example.com",
		PatientPhone:    "0712345678",
		ServiceID:       uuid.New(),
		ServiceName:     "Sports Massage",
		AppointmentDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		TimeSlot:        "09:00-09:30",
		Status:          model.AppointmentStatusPending,
		Origin:          model.BookingOriginGuest,
	}
}

func TestAppointmentCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), testAppointment())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentCreateUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_appointments_active_slot"})

	err := repo.Create(context.Background(), testAppointment())
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestAppointmentBookedSlots(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"time_slot"}).
		AddRow("09:00-09:30").
		AddRow("14:00-14:30")

	mock.ExpectQuery("SELECT time_slot FROM appointments").
		WithArgs(date).
		WillReturnRows(rows)

	slots, err := repo.BookedSlots(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-09:30", "14:00-14:30"}, slots)
}

func TestAppointmentHasActiveAt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(date, "09:00-09:30").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.HasActiveAt(context.Background(), date, "09:00-09:30")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestAppointmentUpdateStatusNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("UPDATE appointments").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), uuid.New(), model.AppointmentStatusConfirmed, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAppointmentGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
