package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/repository"
	apperrors "github.com/physiotrack/clinic-api/pkg/errors"
	"github.com/physiotrack/clinic-api/pkg/metrics"
)

var (
	ErrNotFound          = apperrors.NotFound("backup", nil)
	ErrUnknownCollection = apperrors.BadRequest("unknown collection name", nil)
	ErrEmptyRestore      = apperrors.BadRequest("restore requires a backup_id or an archive", nil)
	ErrInvalidType       = apperrors.BadRequest("unknown backup type", nil)
)

// Config controls snapshot retention and the on-disk copy location.
type Config struct {
	Dir           string `envconfig:"BACKUP_DIR" mapstructure:"dir"`
	RetentionDays int    `envconfig:"BACKUP_RETENTION_DAYS" mapstructure:"retention_days"`
}

// Service creates, restores and prunes collection snapshots. Snapshots are
// immutable after creation; restore replaces whole collections atomically.
type Service struct {
	repo     repository.BackupRepository
	snapshot repository.SnapshotRepository
	cfg      Config
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
}

func NewService(
	repo repository.BackupRepository,
	snapshot repository.SnapshotRepository,
	cfg Config,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		snapshot: snapshot,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
}

// normalizeCollections validates the requested collection names and defaults
// an empty request to every known collection, in registry order.
func normalizeCollections(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string(nil), model.BackupCollections...), nil
	}
	known := make(map[string]bool, len(model.BackupCollections))
	for _, c := range model.BackupCollections {
		known[c] = true
	}
	for _, c := range requested {
		if !known[c] {
			return nil, ErrUnknownCollection
		}
	}
	// Re-order to registry order so restore sees referenced rows first.
	want := make(map[string]bool, len(requested))
	for _, c := range requested {
		want[c] = true
	}
	ordered := make([]string, 0, len(requested))
	for _, c := range model.BackupCollections {
		if want[c] {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// Create snapshots the requested collections into a single archive. Any
// collection dump failing aborts the whole backup; no partial snapshot is
// ever stored.
func (s *Service) Create(ctx context.Context, req *model.CreateBackupRequest, backupType model.BackupType, createdBy string) (*model.Backup, error) {
	if !backupType.Valid() {
		return nil, ErrInvalidType
	}
	collections, err := normalizeCollections(req.Collections)
	if err != nil {
		return nil, err
	}

	archive := make(model.BackupArchive, len(collections))
	totalRows := 0
	for _, collection := range collections {
		raw, count, err := s.snapshot.Dump(ctx, collection)
		if err != nil {
			s.metrics.BackupFailures.Inc()
			return nil, fmt.Errorf("failed to dump collection %s: %w", collection, err)
		}
		archive[collection] = raw
		totalRows += count
	}

	data, err := json.Marshal(archive)
	if err != nil {
		s.metrics.BackupFailures.Inc()
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s", backupType, time.Now().UTC().Format("2006-01-02-150405"))
	}

	backup := &model.Backup{
		Name:        name,
		Type:        backupType,
		SizeBytes:   int64(len(data)),
		Data:        data,
		Collections: collections,
		CreatedBy:   createdBy,
	}
	if backupType == model.BackupTypeAuto && s.cfg.RetentionDays > 0 {
		expires := time.Now().UTC().AddDate(0, 0, s.cfg.RetentionDays)
		backup.ExpiresAt = &expires
	}

	if err := s.repo.Create(ctx, backup); err != nil {
		s.metrics.BackupFailures.Inc()
		return nil, fmt.Errorf("failed to store backup: %w", err)
	}

	if err := s.writeFileCopy(backup); err != nil {
		// The database row is the source of truth; a failed disk copy is
		// logged but does not fail the backup.
		s.logger.Warn().Err(err).Str("backup_id", backup.ID.String()).Msg("failed to write backup file copy")
	}

	s.metrics.BackupsCreated.Inc()
	s.logger.Info().
		Str("backup_id", backup.ID.String()).
		Str("type", string(backupType)).
		Int("collections", len(collections)).
		Int("rows", totalRows).
		Int64("size_bytes", backup.SizeBytes).
		Msg("backup created")

	return backup, nil
}

// writeFileCopy mirrors the archive to the backup directory when one is
// configured.
func (s *Service) writeFileCopy(backup *model.Backup) error {
	if s.cfg.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}
	path := filepath.Join(s.cfg.Dir, backup.ID.String()+".json")
	if err := os.WriteFile(path, backup.Data, 0o640); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

func (s *Service) removeFileCopy(id uuid.UUID) {
	if s.cfg.Dir == "" {
		return
	}
	path := filepath.Join(s.cfg.Dir, id.String()+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("backup_id", id.String()).Msg("failed to remove backup file copy")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Backup, error) {
	backup, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get backup: %w", err)
	}
	return backup, nil
}

// List returns backup metadata without the data blobs.
func (s *Service) List(ctx context.Context) ([]*model.Backup, error) {
	backups, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	return backups, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	s.removeFileCopy(id)
	return nil
}

// Restore replaces the selected collections with the contents of a stored
// backup or an uploaded archive. The snapshot repository runs the whole
// replacement in one transaction, so a failure leaves current data untouched.
func (s *Service) Restore(ctx context.Context, req *model.RestoreBackupRequest) error {
	var raw []byte
	switch {
	case req.BackupID != "":
		id, err := uuid.Parse(req.BackupID)
		if err != nil {
			return apperrors.BadRequest("invalid backup id", err)
		}
		backup, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get backup: %w", err)
		}
		raw = backup.Data
	case len(req.Archive) > 0:
		raw = req.Archive
	default:
		return ErrEmptyRestore
	}

	var archive model.BackupArchive
	if err := json.Unmarshal(raw, &archive); err != nil {
		return apperrors.BadRequest("malformed backup archive", err)
	}

	collections := req.Collections
	if len(collections) == 0 {
		for name := range archive {
			collections = append(collections, name)
		}
	}
	collections, err := normalizeCollections(collections)
	if err != nil {
		return err
	}
	for _, collection := range collections {
		if _, ok := archive[collection]; !ok {
			return apperrors.BadRequest(fmt.Sprintf("collection %s not present in archive", collection), nil)
		}
	}

	if err := s.snapshot.Restore(ctx, archive, collections); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}

	s.logger.Info().Strs("collections", collections).Msg("backup restored")
	return nil
}

// PurgeExpired deletes auto backups past their retention window, including
// their on-disk copies. Manual backups are never purged.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired backups: %w", err)
	}

	purged := 0
	for _, backup := range expired {
		if err := s.repo.Delete(ctx, backup.ID); err != nil {
			s.logger.Error().Err(err).Str("backup_id", backup.ID.String()).Msg("failed to purge expired backup")
			continue
		}
		s.removeFileCopy(backup.ID)
		s.metrics.BackupsPurged.Inc()
		purged++
	}

	if purged > 0 {
		s.logger.Info().Int("count", purged).Msg("expired backups purged")
	}
	return purged, nil
}
