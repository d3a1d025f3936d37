package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/physiotrack/clinic-api/internal/model"
)

// Sentinel errors mapped by the postgres implementations.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	// For appointments this means the (date, slot) pair is already held by an
	// active booking.
	ErrDuplicate = errors.New("duplicate record")
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, notes string) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int64, error)
		ListByPatientEmail(ctx context.Context, email string) ([]*model.Appointment, error)
		// BookedSlots returns the time slots held by active appointments on
		// the given calendar day, in ascending order.
		BookedSlots(ctx context.Context, date time.Time) ([]string, error)
		// HasActiveAt reports whether an active appointment already holds the
		// (date, slot) pair.
		HasActiveAt(ctx context.Context, date time.Time, slot string) (bool, error)
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Service, error)
		ListActive(ctx context.Context) ([]*model.Service, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context) ([]*model.User, error)
	}

	TestimonialRepository interface {
		Create(ctx context.Context, testimonial *model.Testimonial) error
		Get(ctx context.Context, id uuid.UUID) (*model.Testimonial, error)
		Update(ctx context.Context, testimonial *model.Testimonial) error
		List(ctx context.Context) ([]*model.Testimonial, error)
		ListApproved(ctx context.Context) ([]*model.Testimonial, error)
	}

	ContactRepository interface {
		Create(ctx context.Context, msg *model.ContactMessage) error
		List(ctx context.Context) ([]*model.ContactMessage, error)
		MarkRead(ctx context.Context, id uuid.UUID) error
	}

	BackupRepository interface {
		Create(ctx context.Context, backup *model.Backup) error
		Get(ctx context.Context, id uuid.UUID) (*model.Backup, error)
		List(ctx context.Context) ([]*model.Backup, error)
		Delete(ctx context.Context, id uuid.UUID) error
		// ListExpired returns non-manual backups whose expiry has passed.
		ListExpired(ctx context.Context, now time.Time) ([]*model.Backup, error)
	}

	// SnapshotRepository reads and replaces whole collections for the backup
	// engine. Restore is all-or-nothing across the selected collections.
	SnapshotRepository interface {
		Dump(ctx context.Context, collection string) (json.RawMessage, int, error)
		Restore(ctx context.Context, archive model.BackupArchive, collections []string) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
