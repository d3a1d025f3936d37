package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/physiotrack/clinic-api/internal/model"
)

// BackupRunner is the slice of the backup service the scheduler drives.
type BackupRunner interface {
	Create(ctx context.Context, req *model.CreateBackupRequest, backupType model.BackupType, createdBy string) (*model.Backup, error)
	PurgeExpired(ctx context.Context) (int, error)
}

// BackupScheduler takes a full snapshot on a fixed interval and prunes
// expired automatic backups afterwards.
type BackupScheduler struct {
	backups  BackupRunner
	interval time.Duration
	logger   *zerolog.Logger
}

func NewBackupScheduler(backups BackupRunner, interval time.Duration, logger *zerolog.Logger) *BackupScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &BackupScheduler{
		backups:  backups,
		interval: interval,
		logger:   logger,
	}
}

func (s *BackupScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("backup scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("backup scheduler stopped")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *BackupScheduler) run(ctx context.Context) {
	backup, err := s.backups.Create(ctx, &model.CreateBackupRequest{}, model.BackupTypeAuto, "scheduler")
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled backup failed")
	} else {
		s.logger.Info().Str("backup_id", backup.ID.String()).Msg("scheduled backup created")
	}

	if _, err := s.backups.PurgeExpired(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to purge expired backups")
	}
}
