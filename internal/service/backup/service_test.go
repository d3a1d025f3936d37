package backup

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/repository"
	"github.com/physiotrack/clinic-api/pkg/metrics"
)

type mockBackupRepo struct {
	mock.Mock
}

func (m *mockBackupRepo) Create(ctx context.Context, b *model.Backup) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBackupRepo) Get(ctx context.Context, id uuid.UUID) (*model.Backup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Backup), args.Error(1)
}

func (m *mockBackupRepo) List(ctx context.Context) ([]*model.Backup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Backup), args.Error(1)
}

func (m *mockBackupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackupRepo) ListExpired(ctx context.Context, now time.Time) ([]*model.Backup, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Backup), args.Error(1)
}

type mockSnapshotRepo struct {
	mock.Mock
}

func (m *mockSnapshotRepo) Dump(ctx context.Context, collection string) (json.RawMessage, int, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(json.RawMessage), args.Int(1), args.Error(2)
}

func (m *mockSnapshotRepo) Restore(ctx context.Context, archive model.BackupArchive, collections []string) error {
	return m.Called(ctx, archive, collections).Error(0)
}

var testMetrics = metrics.New("backup_test")

func newTestService(t *testing.T, repo *mockBackupRepo, snapshot *mockSnapshotRepo) *Service {
	t.Helper()
	logger := zerolog.New(io.Discard)
	cfg := Config{Dir: t.TempDir(), RetentionDays: 30}
	return NewService(repo, snapshot, cfg, testMetrics, &logger)
}

func emptyRows() json.RawMessage {
	return json.RawMessage("[]")
}

func TestCreateSnapshotsAllCollections(t *testing.T) {
	repo := new(mockBackupRepo)
	snapshot := new(mockSnapshotRepo)
	svc := newTestService(t, repo, snapshot)

	for _, c := range model.BackupCollections {
		snapshot.On("Dump", mock.Anything, c).Return(emptyRows(), 0, nil)
	}
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Backup")).Return(nil)

	backup, err := svc.Create(context.Background(), &model.CreateBackupRequest{}, model.BackupTypeManual, "admin@example.com")
	require.NoError(t, err)

	assert.Equal(t, model.BackupTypeManual, backup.Type)
	assert.ElementsMatch(t, model.BackupCollections, []string(backup.Collections))
	assert.Nil(t, backup.ExpiresAt)
	assert.Greater(t, backup.SizeBytes, int64(0))

	var archive model.BackupArchive
	require.NoError(t, json.Unmarshal(backup.Data, &archive))
	assert.Len(t, archive, len(model.BackupCollections))
}

func TestCreateAutoBackupExpires(t *testing.T) {
	repo := new(mockBackupRepo)
	snapshot := new(mockSnapshotRepo)
	svc := newTestService(t, repo, snapshot)

	for _, c := range model.BackupCollections {
		snapshot.On("Dump", mock.Anything, c).Return(emptyRows(), 0, nil)
	}
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	backup, err := svc.Create(context.Background(), &model.CreateBackupRequest{}, model.BackupTypeAuto, "scheduler")
	require.NoError(t, err)
	require.NotNil(t, backup.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), *backup.ExpiresAt, time.Minute)
}

func TestCreateAcceptsEveryBackupType(t *testing.T) {
	for _, backupType := range []model.BackupType{
		model.BackupTypeManual,
		model.BackupTypeAuto,
		model.BackupTypeComplete,
		model.BackupTypeIncremental,
	} {
		repo := new(mockBackupRepo)
		snapshot := new(mockSnapshotRepo)
		svc := newTestService(t, repo, snapshot)

		for _, c := range model.BackupCollections {
			snapshot.On("Dump", mock.Anything, c).Return(emptyRows(), 0, nil)
		}
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		backup, err := svc.Create(context.Background(), &model.CreateBackupRequest{}, backupType, "admin")
		require.NoError(t, err, backupType)
		assert.Equal(t, backupType, backup.Type)
	}
}

func TestCreateRejectsUnknownBackupType(t *testing.T) {
	repo := new(mockBackupRepo)
	snapshot := new(mockSnapshotRepo)
	svc := newTestService(t, repo, snapshot)

	_, err := svc.Create(context.Background(), &model.CreateBackupRequest{}, "differential", "admin")
	assert.ErrorIs(t, err, ErrInvalidType)
	snapshot.AssertNotCalled(t, "Dump", mock.Anything, mock.Anything)
}

func TestCreateSubsetKeepsRegistryOrder(t *testing.T) {
	repo := new(mockBackupRepo)
	snapshot := new(mockSnapshotRepo)
	svc := newTestService(t, repo, snapshot)

	snapshot.On("Dump", mock.Anything, model.CollectionUsers).Return(emptyRows(), 0, nil)
	snapshot.On("Dump", mock.Anything, model.CollectionAppointments).Return(emptyRows(), 0, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	backup, err := svc.Create(context.Background(), &model.CreateBackupRequest{
		Collections: []string{model.CollectionAppointments, model.CollectionUsers},
	}, model.BackupTypeManual, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{model.CollectionUsers, model.CollectionAppointments}, []string(backup.Collections))
}

func TestCreateAbortsOnDumpFailure(t *testing.T) {
	repo := new(mockBackupRepo)
	snapshot := new(mockSnapshotRepo)
	svc := newTestService(t, repo, snapshot)

	snapshot.On("Dump", mock.Anything, model.CollectionUsers).Return(emptyRows(), 0, nil)
	snapshot.On("Dump", mock.Anything, model.CollectionServices).Return(nil, 0, assert.AnError)

	_, err := svc.Create(context.Background(), &model.CreateBackupRequest{}, model.BackupTypeManual, "admin")
	require.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateRejectsUnknownCollection(t *testing.T) {
	svc := newTestService(t, new(mockBackupRepo), new(mockSnapshotRepo))

	_, err := svc.Create(context.Background(), &model.CreateBackupRequest{
		Collections: []string{"invoices"},
	}, model.BackupTypeManual, "admin")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestCreateWritesFileCopy(t *testing.T) {
	repo := new(mockBackupRepo)
	snapshot := new(mockSnapshotRepo)
	logger := zerolog.New(io.Discard)
	dir := t.TempDir()
	svc := NewService(repo, snapshot, Config{Dir: dir, RetentionDays: 30}, testMetrics, &logger)

	for _, c := range model.BackupCollections {
		snapshot.On("Dump", mock.Anything, c).Return(emptyRows(), 0, nil)
	}
	id := uuid.New()
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Backup).ID = id
	}).Return(nil)

	_, err := svc.Create(context.Background(), &model.CreateBackupRequest{}, model.BackupTypeManual, "admin")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, id.String()+".json"))
	assert.NoError(t, err)
}

func TestRestoreFromStoredBackup(t *testing.T) {
	repo := new(mockBackupRepo)
	snapshot := new(mockSnapshotRepo)
	svc := newTestService(t, repo, snapshot)

	archive := model.BackupArchive{
		model.CollectionUsers:    emptyRows(),
		model.CollectionServices: emptyRows(),
	}
	data, err := json.Marshal(archive)
	require.NoError(t, err)

	id := uuid.New()
	repo.On("Get", mock.Anything, id).Return(&model.Backup{Base: model.Base{ID: id}, Data: data}, nil)
	snapshot.On("Restore", mock.Anything, mock.Anything, []string{model.CollectionUsers, model.CollectionServices}).Return(nil)

	err = svc.Restore(context.Background(), &model.RestoreBackupRequest{BackupID: id.String()})
	require.NoError(t, err)
	snapshot.AssertExpectations(t)
}

func TestRestoreFromUploadedArchive(t *testing.T) {
	repo := new(mockBackupRepo)
	snapshot := new(mockSnapshotRepo)
	svc := newTestService(t, repo, snapshot)

	raw := []byte(`{"services":[]}`)
	snapshot.On("Restore", mock.Anything, mock.Anything, []string{model.CollectionServices}).Return(nil)

	err := svc.Restore(context.Background(), &model.RestoreBackupRequest{Archive: raw})
	require.NoError(t, err)
}

func TestRestoreRejectsMissingCollection(t *testing.T) {
	svc := newTestService(t, new(mockBackupRepo), new(mockSnapshotRepo))

	err := svc.Restore(context.Background(), &model.RestoreBackupRequest{
		Archive:     []byte(`{"services":[]}`),
		Collections: []string{model.CollectionUsers},
	})
	require.Error(t, err)
}

func TestRestoreRequiresSource(t *testing.T) {
	svc := newTestService(t, new(mockBackupRepo), new(mockSnapshotRepo))

	err := svc.Restore(context.Background(), &model.RestoreBackupRequest{})
	assert.ErrorIs(t, err, ErrEmptyRestore)
}

func TestRestoreStoredBackupNotFound(t *testing.T) {
	repo := new(mockBackupRepo)
	svc := newTestService(t, repo, new(mockSnapshotRepo))

	id := uuid.New()
	repo.On("Get", mock.Anything, id).Return(nil, repository.ErrNotFound)

	err := svc.Restore(context.Background(), &model.RestoreBackupRequest{BackupID: id.String()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeExpired(t *testing.T) {
	repo := new(mockBackupRepo)
	svc := newTestService(t, repo, new(mockSnapshotRepo))

	first := &model.Backup{Base: model.Base{ID: uuid.New()}}
	second := &model.Backup{Base: model.Base{ID: uuid.New()}}
	repo.On("ListExpired", mock.Anything, mock.Anything).Return([]*model.Backup{first, second}, nil)
	repo.On("Delete", mock.Anything, first.ID).Return(nil)
	repo.On("Delete", mock.Anything, second.ID).Return(assert.AnError)

	purged, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
}
