package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/repository"
	"github.com/physiotrack/clinic-api/internal/schedule"
	"github.com/physiotrack/clinic-api/internal/service/event"
	"github.com/physiotrack/clinic-api/pkg/metrics"
)

type Service struct {
	repo        repository.AppointmentRepository
	serviceRepo repository.ServiceRepository
	emitter     event.Emitter
	metrics     *metrics.Metrics
	logger      *zerolog.Logger
}

func NewService(
	repo repository.AppointmentRepository,
	serviceRepo repository.ServiceRepository,
	emitter event.Emitter,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		serviceRepo: serviceRepo,
		emitter:     emitter,
		metrics:     m,
		logger:      logger,
	}
}

// parseBookableDate parses and validates a calendar date for booking or
// availability purposes. Past is measured at day granularity: today is
// bookable, yesterday is not.
func parseBookableDate(raw string) (time.Time, error) {
	date, err := time.Parse(schedule.DateFormat, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if !schedule.IsOpen(date) {
		return time.Time{}, ErrClosedDay
	}
	// Parsed dates are UTC midnights, so compare against the server's local
	// calendar day rebuilt in UTC. Truncating the clock time instead would
	// snap to UTC day boundaries and shift the cutoff on non-UTC servers.
	now := time.Now()
	todayDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(todayDay) {
		return time.Time{}, ErrPastDate
	}
	return date, nil
}

// AvailableSlots returns the catalog slots on the given date that are not
// held by an active appointment, in catalog order. A fully booked day yields
// an empty list, not an error.
func (s *Service) AvailableSlots(ctx context.Context, rawDate string) ([]string, error) {
	date, err := parseBookableDate(rawDate)
	if err != nil {
		return nil, err
	}

	s.metrics.SlotQueries.Inc()

	booked, err := s.repo.BookedSlots(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve availability: %w", err)
	}

	taken := make(map[string]bool, len(booked))
	for _, slot := range booked {
		taken[slot] = true
	}

	available := make([]string, 0, len(schedule.Catalog()))
	for _, slot := range schedule.Catalog() {
		if !taken[slot] {
			available = append(available, slot)
		}
	}
	return available, nil
}

// Book validates and persists a new appointment in status pending. The
// application-level conflict re-check fails fast with a friendly error; the
// partial unique index on (appointment_date, time_slot) for active statuses
// is the authoritative guard, and a duplicate-key insert also surfaces as
// ErrSlotTaken so the race loser gets a clean conflict rather than a 500.
func (s *Service) Book(ctx context.Context, req *model.BookAppointmentRequest, patientID *uuid.UUID, origin model.BookingOrigin) (*model.Appointment, error) {
	date, err := parseBookableDate(req.Date)
	if err != nil {
		return nil, err
	}

	if !schedule.IsValidSlot(req.TimeSlot) {
		return nil, ErrInvalidSlot
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, ErrServiceUnavailable
	}
	svc, err := s.serviceRepo.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrServiceUnavailable
		}
		return nil, fmt.Errorf("failed to look up service: %w", err)
	}
	if !svc.Active {
		return nil, ErrServiceUnavailable
	}

	taken, err := s.repo.HasActiveAt(ctx, date, req.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot occupancy: %w", err)
	}
	if taken {
		s.metrics.BookingConflicts.Inc()
		return nil, ErrSlotTaken
	}

	apt := &model.Appointment{
		PatientID:       patientID,
		PatientName:     req.PatientName,
		PatientEmail:    req.PatientEmail,
		PatientPhone:    req.PatientPhone,
		ServiceID:       svc.ID,
		ServiceName:     svc.Title,
		AppointmentDate: date,
		TimeSlot:        req.TimeSlot,
		HealthConcern:   req.HealthConcern,
		Status:          model.AppointmentStatusPending,
		Origin:          origin,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.BookingConflicts.Inc()
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.metrics.BookingsCreated.Inc()
	s.emit(ctx, model.EventAppointmentCreated, apt)

	return apt, nil
}

// UpdateStatus overwrites an appointment's lifecycle status and, when
// provided, its admin notes. Terminal states reject further transitions.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error) {
	if !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if apt.Status.Terminal() && req.Status != apt.Status {
		return nil, ErrTerminalStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.Notes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}

	apt.Status = req.Status
	if req.Notes != "" {
		apt.Notes = req.Notes
	}

	switch req.Status {
	case model.AppointmentStatusConfirmed:
		s.emit(ctx, model.EventAppointmentConfirmed, apt)
	case model.AppointmentStatusCancelled, model.AppointmentStatusRescheduled:
		s.emit(ctx, model.EventAppointmentCancelled, apt)
	case model.AppointmentStatusCompleted:
		s.emit(ctx, model.EventAppointmentCompleted, apt)
	}

	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int64, error) {
	appointments, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, total, nil
}

func (s *Service) ListForPatient(ctx context.Context, email string) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListByPatientEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}

// emit records a domain event; delivery problems are logged and swallowed so
// notification channel failures can never affect booking correctness.
func (s *Service) emit(ctx context.Context, eventType string, apt *model.Appointment) {
	payload := &model.AppointmentEvent{Type: eventType, Appointment: apt}
	if err := s.emitter.Emit(ctx, eventType, payload); err != nil {
		s.logger.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", apt.ID.String()).
			Msg("failed to emit appointment event")
	}
}
