package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiotrack/clinic-api/internal/model"
)

func sqlmockTime() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func TestSnapshotDumpStripsCredentials(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "phone", "password_hash", "role", "reset_token", "reset_token_expiry", "created_at", "updated_at"}).
		AddRow("6b1e3c0a-25a6-4c86-9e0d-000000000001", "Jordan Smith", "jordan@example.com", "0712345678", "$2a$10$secret", "user", nil, nil, sqlmockTime(), sqlmockTime())

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(rows)

	raw, count, err := repo.Dump(context.Background(), model.CollectionUsers)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var users []model.User
	require.NoError(t, json.Unmarshal(raw, &users))
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)
	assert.Nil(t, users[0].ResetToken)
}

func TestSnapshotDumpUnknownCollection(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewSnapshotRepository(db)

	_, _, err := repo.Dump(context.Background(), "invoices")
	assert.Error(t, err)
}

func TestSnapshotRestoreRunsInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepository(db)

	archive := model.BackupArchive{
		model.CollectionServices: json.RawMessage(`[]`),
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM services").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Restore(context.Background(), archive, []string{model.CollectionServices})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRestoreClearsReferencingTablesFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepository(db)

	archive := model.BackupArchive{
		model.CollectionUsers:        json.RawMessage(`[{"id":"6b1e3c0a-25a6-4c86-9e0d-000000000001","name":"Jordan Smith","email":"jordan@example.com","phone":"0712345678","role":"user"}]`),
		model.CollectionAppointments: json.RawMessage(`[]`),
	}

	// Appointments reference users, so the deletes must run appointments
	// first and the inserts users first. sqlmock verifies the order.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM appointments").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Restore(context.Background(), archive, []string{model.CollectionAppointments, model.CollectionUsers})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRestoreRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepository(db)

	archive := model.BackupArchive{
		model.CollectionServices: json.RawMessage(`[]`),
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM services").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Restore(context.Background(), archive, []string{model.CollectionServices})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRestoreUnknownCollection(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepository(db)

	err := repo.Restore(context.Background(), model.BackupArchive{}, []string{"invoices"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
