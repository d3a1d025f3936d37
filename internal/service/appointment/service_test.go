package appointment

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/repository"
	"github.com/physiotrack/clinic-api/internal/schedule"
	"github.com/physiotrack/clinic-api/pkg/metrics"
)

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, notes string) error {
	return m.Called(ctx, id, status, notes).Error(0)
}

func (m *mockAppointmentRepo) List(ctx context.Context, f *model.AppointmentFilters) ([]*model.Appointment, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.Appointment), args.Get(1).(int64), args.Error(2)
}

func (m *mockAppointmentRepo) ListByPatientEmail(ctx context.Context, email string) ([]*model.Appointment, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) BookedSlots(ctx context.Context, date time.Time) ([]string, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockAppointmentRepo) HasActiveAt(ctx context.Context, date time.Time, slot string) (bool, error) {
	args := m.Called(ctx, date, slot)
	return args.Bool(0), args.Error(1)
}

type mockServiceRepo struct {
	mock.Mock
}

func (m *mockServiceRepo) Create(ctx context.Context, s *model.Service) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockServiceRepo) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *mockServiceRepo) Update(ctx context.Context, s *model.Service) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockServiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockServiceRepo) List(ctx context.Context) ([]*model.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Service), args.Error(1)
}

func (m *mockServiceRepo) ListActive(ctx context.Context) ([]*model.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Service), args.Error(1)
}

type mockEmitter struct {
	mock.Mock
}

func (m *mockEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	return m.Called(ctx, eventType, payload).Error(0)
}

var testMetrics = metrics.New("clinic_test")

func newTestService(repo *mockAppointmentRepo, svcRepo *mockServiceRepo, emitter *mockEmitter) *Service {
	logger := zerolog.New(io.Discard)
	return NewService(repo, svcRepo, emitter, testMetrics, &logger)
}

// futureDate returns an upcoming non-Sunday date string.
func futureDate(t *testing.T) (string, time.Time) {
	t.Helper()
	d := time.Now().AddDate(0, 0, 7)
	if d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	raw := d.Format(schedule.DateFormat)
	parsed, err := time.Parse(schedule.DateFormat, raw)
	require.NoError(t, err)
	return raw, parsed
}

// futureSunday returns an upcoming Sunday date string.
func futureSunday(t *testing.T) string {
	t.Helper()
	d := time.Now().AddDate(0, 0, 7)
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format(schedule.DateFormat)
}

func activeService() *model.Service {
	return &model.Service{
		Base:     model.Base{ID: uuid.New()},
		Title:    "Sports Massage",
		Duration: 30,
		Active:   true,
	}
}

func bookingRequest(serviceID uuid.UUID, date, slot string) *model.BookAppointmentRequest {
	return &model.BookAppointmentRequest{
		PatientName:  "Jordan Smith",
		PatientEmail: "jordan@example.com",
		PatientPhone: "0712345678",
		ServiceID:    serviceID.String(),
		Date:         date,
		TimeSlot:     slot,
	}
}

func TestAvailableSlotsAllFree(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := newTestService(repo, new(mockServiceRepo), new(mockEmitter))

	raw, parsed := futureDate(t)
	repo.On("BookedSlots", mock.Anything, parsed).Return([]string{}, nil)

	slots, err := svc.AvailableSlots(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, schedule.Catalog(), slots)
}

func TestAvailableSlotsFiltersBooked(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := newTestService(repo, new(mockServiceRepo), new(mockEmitter))

	raw, parsed := futureDate(t)
	repo.On("BookedSlots", mock.Anything, parsed).Return([]string{"09:00-09:30", "14:00-14:30"}, nil)

	slots, err := svc.AvailableSlots(context.Background(), raw)
	require.NoError(t, err)
	assert.Len(t, slots, 14)
	assert.NotContains(t, slots, "09:00-09:30")
	assert.NotContains(t, slots, "14:00-14:30")
	assert.Equal(t, "09:30-10:00", slots[0])
}

func TestAvailableSlotsFullyBooked(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := newTestService(repo, new(mockServiceRepo), new(mockEmitter))

	raw, parsed := futureDate(t)
	repo.On("BookedSlots", mock.Anything, parsed).Return(schedule.Catalog(), nil)

	slots, err := svc.AvailableSlots(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsRejectsInvalidDate(t *testing.T) {
	svc := newTestService(new(mockAppointmentRepo), new(mockServiceRepo), new(mockEmitter))

	_, err := svc.AvailableSlots(context.Background(), "not-a-date")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAvailableSlotsRejectsSunday(t *testing.T) {
	svc := newTestService(new(mockAppointmentRepo), new(mockServiceRepo), new(mockEmitter))

	_, err := svc.AvailableSlots(context.Background(), futureSunday(t))
	assert.ErrorIs(t, err, ErrClosedDay)
}

func TestAvailableSlotsRejectsPastDate(t *testing.T) {
	svc := newTestService(new(mockAppointmentRepo), new(mockServiceRepo), new(mockEmitter))

	past := time.Now().AddDate(0, 0, -7)
	if past.Weekday() == time.Sunday {
		past = past.AddDate(0, 0, 1)
	}
	_, err := svc.AvailableSlots(context.Background(), past.Format(schedule.DateFormat))
	assert.ErrorIs(t, err, ErrPastDate)
}

// The past-date cutoff follows the local calendar day, whatever timezone the
// server runs in: yesterday is rejected, today is still bookable.
func TestParseBookableDateDayBoundary(t *testing.T) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	yesterday := today.AddDate(0, 0, -1)
	_, err := parseBookableDate(yesterday.Format(schedule.DateFormat))
	if yesterday.Weekday() == time.Sunday {
		assert.ErrorIs(t, err, ErrClosedDay)
	} else {
		assert.ErrorIs(t, err, ErrPastDate)
	}

	if today.Weekday() != time.Sunday {
		parsed, err := parseBookableDate(today.Format(schedule.DateFormat))
		require.NoError(t, err)
		assert.Equal(t, today, parsed)
	}
}

func TestBookHappyPath(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svcRepo := new(mockServiceRepo)
	emitter := new(mockEmitter)
	svc := newTestService(repo, svcRepo, emitter)

	raw, parsed := futureDate(t)
	treatment := activeService()

	svcRepo.On("Get", mock.Anything, treatment.ID).Return(treatment, nil)
	repo.On("HasActiveAt", mock.Anything, parsed, "09:00-09:30").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Appointment")).Return(nil)
	emitter.On("Emit", mock.Anything, model.EventAppointmentCreated, mock.Anything).Return(nil)

	apt, err := svc.Book(context.Background(), bookingRequest(treatment.ID, raw, "09:00-09:30"), nil, model.BookingOriginGuest)
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, "Sports Massage", apt.ServiceName)
	assert.Equal(t, "09:00-09:30", apt.TimeSlot)
	assert.Equal(t, model.BookingOriginGuest, apt.Origin)
	repo.AssertExpectations(t)
	emitter.AssertExpectations(t)
}

func TestBookDenormalizesServiceName(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svcRepo := new(mockServiceRepo)
	emitter := new(mockEmitter)
	svc := newTestService(repo, svcRepo, emitter)

	raw, parsed := futureDate(t)
	treatment := activeService()
	treatment.Title = "Deep Tissue Massage"

	svcRepo.On("Get", mock.Anything, treatment.ID).Return(treatment, nil)
	repo.On("HasActiveAt", mock.Anything, parsed, "10:00-10:30").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Appointment")).Return(nil)
	emitter.On("Emit", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	apt, err := svc.Book(context.Background(), bookingRequest(treatment.ID, raw, "10:00-10:30"), nil, model.BookingOriginUser)
	require.NoError(t, err)
	assert.Equal(t, "Deep Tissue Massage", apt.ServiceName)
}

func TestBookRejectsInactiveService(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svcRepo := new(mockServiceRepo)
	svc := newTestService(repo, svcRepo, new(mockEmitter))

	raw, _ := futureDate(t)
	treatment := activeService()
	treatment.Active = false

	svcRepo.On("Get", mock.Anything, treatment.ID).Return(treatment, nil)

	_, err := svc.Book(context.Background(), bookingRequest(treatment.ID, raw, "09:00-09:30"), nil, model.BookingOriginGuest)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestBookRejectsUnknownService(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svcRepo := new(mockServiceRepo)
	svc := newTestService(repo, svcRepo, new(mockEmitter))

	raw, _ := futureDate(t)
	id := uuid.New()
	svcRepo.On("Get", mock.Anything, id).Return(nil, repository.ErrNotFound)

	_, err := svc.Book(context.Background(), bookingRequest(id, raw, "09:00-09:30"), nil, model.BookingOriginGuest)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestBookRejectsInvalidSlot(t *testing.T) {
	svc := newTestService(new(mockAppointmentRepo), new(mockServiceRepo), new(mockEmitter))

	raw, _ := futureDate(t)
	_, err := svc.Book(context.Background(), bookingRequest(uuid.New(), raw, "13:00-13:30"), nil, model.BookingOriginGuest)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestBookConflictOnRecheck(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svcRepo := new(mockServiceRepo)
	svc := newTestService(repo, svcRepo, new(mockEmitter))

	raw, parsed := futureDate(t)
	treatment := activeService()

	svcRepo.On("Get", mock.Anything, treatment.ID).Return(treatment, nil)
	repo.On("HasActiveAt", mock.Anything, parsed, "09:00-09:30").Return(true, nil)

	_, err := svc.Book(context.Background(), bookingRequest(treatment.ID, raw, "09:00-09:30"), nil, model.BookingOriginGuest)
	assert.ErrorIs(t, err, ErrSlotTaken)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookConflictOnDuplicateInsert(t *testing.T) {
	// The re-check passed but another request won the race; the unique index
	// violation must surface as the same conflict error.
	repo := new(mockAppointmentRepo)
	svcRepo := new(mockServiceRepo)
	svc := newTestService(repo, svcRepo, new(mockEmitter))

	raw, parsed := futureDate(t)
	treatment := activeService()

	svcRepo.On("Get", mock.Anything, treatment.ID).Return(treatment, nil)
	repo.On("HasActiveAt", mock.Anything, parsed, "09:00-09:30").Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, err := svc.Book(context.Background(), bookingRequest(treatment.ID, raw, "09:00-09:30"), nil, model.BookingOriginGuest)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookSucceedsWhenEmitFails(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svcRepo := new(mockServiceRepo)
	emitter := new(mockEmitter)
	svc := newTestService(repo, svcRepo, emitter)

	raw, parsed := futureDate(t)
	treatment := activeService()

	svcRepo.On("Get", mock.Anything, treatment.ID).Return(treatment, nil)
	repo.On("HasActiveAt", mock.Anything, parsed, "09:00-09:30").Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	emitter.On("Emit", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	apt, err := svc.Book(context.Background(), bookingRequest(treatment.ID, raw, "09:00-09:30"), nil, model.BookingOriginGuest)
	require.NoError(t, err)
	assert.NotNil(t, apt)
}

func TestUpdateStatusConfirm(t *testing.T) {
	repo := new(mockAppointmentRepo)
	emitter := new(mockEmitter)
	svc := newTestService(repo, new(mockServiceRepo), emitter)

	id := uuid.New()
	apt := &model.Appointment{Base: model.Base{ID: id}, Status: model.AppointmentStatusPending}

	repo.On("Get", mock.Anything, id).Return(apt, nil)
	repo.On("UpdateStatus", mock.Anything, id, model.AppointmentStatusConfirmed, "see notes").Return(nil)
	emitter.On("Emit", mock.Anything, model.EventAppointmentConfirmed, mock.Anything).Return(nil)

	updated, err := svc.UpdateStatus(context.Background(), id, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusConfirmed,
		Notes:  "see notes",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, updated.Status)
	assert.Equal(t, "see notes", updated.Notes)
	emitter.AssertExpectations(t)
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := newTestService(repo, new(mockServiceRepo), new(mockEmitter))

	id := uuid.New()
	repo.On("Get", mock.Anything, id).Return(nil, repository.ErrNotFound)

	_, err := svc.UpdateStatus(context.Background(), id, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusRejectsInvalid(t *testing.T) {
	svc := newTestService(new(mockAppointmentRepo), new(mockServiceRepo), new(mockEmitter))

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), &model.UpdateAppointmentStatusRequest{
		Status: "archived",
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusRejectsTerminalTransition(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svc := newTestService(repo, new(mockServiceRepo), new(mockEmitter))

	id := uuid.New()
	apt := &model.Appointment{Base: model.Base{ID: id}, Status: model.AppointmentStatusCompleted}
	repo.On("Get", mock.Anything, id).Return(apt, nil)

	_, err := svc.UpdateStatus(context.Background(), id, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusPending,
	})
	assert.ErrorIs(t, err, ErrTerminalStatus)
}

func TestCancelEmitsCancelledEvent(t *testing.T) {
	repo := new(mockAppointmentRepo)
	emitter := new(mockEmitter)
	svc := newTestService(repo, new(mockServiceRepo), emitter)

	id := uuid.New()
	apt := &model.Appointment{Base: model.Base{ID: id}, Status: model.AppointmentStatusConfirmed}

	repo.On("Get", mock.Anything, id).Return(apt, nil)
	repo.On("UpdateStatus", mock.Anything, id, model.AppointmentStatusCancelled, "").Return(nil)
	emitter.On("Emit", mock.Anything, model.EventAppointmentCancelled, mock.Anything).Return(nil)

	_, err := svc.UpdateStatus(context.Background(), id, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusCancelled,
	})
	require.NoError(t, err)
	emitter.AssertExpectations(t)
}

// Booking scenario: book a slot, see it disappear from availability, fail to
// rebook it, cancel, see it return.
func TestBookingScenario(t *testing.T) {
	repo := new(mockAppointmentRepo)
	svcRepo := new(mockServiceRepo)
	emitter := new(mockEmitter)
	svc := newTestService(repo, svcRepo, emitter)

	raw, parsed := futureDate(t)
	treatment := activeService()
	slot := "09:00-09:30"

	svcRepo.On("Get", mock.Anything, treatment.ID).Return(treatment, nil)
	emitter.On("Emit", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Initially free.
	repo.On("BookedSlots", mock.Anything, parsed).Return([]string{}, nil).Once()
	slots, err := svc.AvailableSlots(context.Background(), raw)
	require.NoError(t, err)
	assert.Contains(t, slots, slot)

	// Book it.
	repo.On("HasActiveAt", mock.Anything, parsed, slot).Return(false, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	booked, err := svc.Book(context.Background(), bookingRequest(treatment.ID, raw, slot), nil, model.BookingOriginGuest)
	require.NoError(t, err)

	// Slot is gone.
	repo.On("BookedSlots", mock.Anything, parsed).Return([]string{slot}, nil).Once()
	slots, err = svc.AvailableSlots(context.Background(), raw)
	require.NoError(t, err)
	assert.NotContains(t, slots, slot)

	// Second booking attempt conflicts.
	repo.On("HasActiveAt", mock.Anything, parsed, slot).Return(true, nil).Once()
	_, err = svc.Book(context.Background(), bookingRequest(treatment.ID, raw, slot), nil, model.BookingOriginGuest)
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Cancel frees the slot.
	booked.Base.ID = uuid.New()
	repo.On("Get", mock.Anything, booked.ID).Return(booked, nil).Once()
	repo.On("UpdateStatus", mock.Anything, booked.ID, model.AppointmentStatusCancelled, "").Return(nil).Once()
	_, err = svc.UpdateStatus(context.Background(), booked.ID, &model.UpdateAppointmentStatusRequest{
		Status: model.AppointmentStatusCancelled,
	})
	require.NoError(t, err)

	repo.On("BookedSlots", mock.Anything, parsed).Return([]string{}, nil).Once()
	slots, err = svc.AvailableSlots(context.Background(), raw)
	require.NoError(t, err)
	assert.Contains(t, slots, slot)
}
