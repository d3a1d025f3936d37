package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/repository"
)

const backupColumns = `
	id, name, type, size_bytes, data, collections, created_by,
	expires_at, created_at, updated_at
`

func (r *backupRepository) Create(ctx context.Context, backup *model.Backup) error {
	query := `
		INSERT INTO backups (
			id, name, type, size_bytes, data, collections, created_by,
			expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	backup.ID = uuid.New()
	backup.CreatedAt = time.Now()
	backup.UpdatedAt = backup.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		backup.ID,
		backup.Name,
		backup.Type,
		backup.SizeBytes,
		backup.Data,
		backup.Collections,
		backup.CreatedBy,
		backup.ExpiresAt,
		backup.CreatedAt,
		backup.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}

func (r *backupRepository) Get(ctx context.Context, id uuid.UUID) (*model.Backup, error) {
	query := `SELECT ` + backupColumns + ` FROM backups WHERE id = $1`

	var backup model.Backup
	if err := r.db.GetContext(ctx, &backup, query, id); err != nil {
		if mapped := mapErr(err); mapped == repository.ErrNotFound {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to get backup: %w", err)
	}
	return &backup, nil
}

func (r *backupRepository) List(ctx context.Context) ([]*model.Backup, error) {
	// The data blob is omitted from history listings; download fetches it.
	query := `
		SELECT id, name, type, size_bytes, collections, created_by,
		       expires_at, created_at, updated_at
		FROM backups
		ORDER BY created_at DESC
	`
	var backups []*model.Backup
	if err := r.db.SelectContext(ctx, &backups, query); err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	return backups, nil
}

func (r *backupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM backups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *backupRepository) ListExpired(ctx context.Context, now time.Time) ([]*model.Backup, error) {
	query := `
		SELECT id, name, type, size_bytes, collections, created_by,
		       expires_at, created_at, updated_at
		FROM backups
		WHERE type <> 'manual'
		AND expires_at IS NOT NULL
		AND expires_at < $1
	`
	var backups []*model.Backup
	if err := r.db.SelectContext(ctx, &backups, query, now); err != nil {
		return nil, fmt.Errorf("failed to list expired backups: %w", err)
	}
	return backups, nil
}
