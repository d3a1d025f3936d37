package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending     AppointmentStatus = "pending"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCompleted, AppointmentStatusCancelled,
		AppointmentStatusRescheduled:
		return true
	}
	return false
}

// Active reports whether the status occupies its time slot. Cancelled,
// completed and rescheduled appointments free the slot for rebooking.
func (s AppointmentStatus) Active() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

// Terminal reports whether no further transitions are allowed from s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled ||
		s == AppointmentStatusRescheduled
}

type BookingOrigin string

const (
	BookingOriginUser  BookingOrigin = "user"
	BookingOriginGuest BookingOrigin = "guest"
	BookingOriginAdmin BookingOrigin = "admin"
)

// Appointment is one booked consultation. Patient and service display fields
// are denormalized snapshots captured at booking time and are intentionally
// not kept in sync with later edits to the source records.
type Appointment struct {
	Base
	PatientID       *uuid.UUID        `db:"patient_id" json:"patient_id,omitempty"`
	PatientName     string            `db:"patient_name" json:"patient_name"`
	PatientEmail    string            `db:"patient_email" json:"patient_email"`
	PatientPhone    string            `db:"patient_phone" json:"patient_phone"`
	ServiceID       uuid.UUID         `db:"service_id" json:"service_id"`
	ServiceName     string            `db:"service_name" json:"service_name"`
	AppointmentDate time.Time         `db:"appointment_date" json:"appointment_date"`
	TimeSlot        string            `db:"time_slot" json:"time_slot"`
	HealthConcern   string            `db:"health_concern" json:"health_concern,omitempty"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	Origin          BookingOrigin     `db:"origin" json:"origin"`
}

type BookAppointmentRequest struct {
	PatientName   string `json:"patient_name" binding:"required,max=100"`
	PatientEmail  string `json:"patient_email" binding:"required,email"`
	PatientPhone  string `json:"patient_phone" binding:"required,phone"`
	ServiceID     string `json:"service_id" binding:"required,uuid"`
	Date          string `json:"date" binding:"required"`
	TimeSlot      string `json:"time_slot" binding:"required"`
	HealthConcern string `json:"health_concern" binding:"max=2000"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
	Notes  string            `json:"notes" binding:"max=2000"`
}

type AppointmentFilters struct {
	Status    AppointmentStatus
	ServiceID uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Pagination
}
