package model

// Event types published by the booking and status-transition paths and
// consumed by the notification dispatcher.
const (
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentConfirmed = "appointment.confirmed"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentCompleted = "appointment.completed"
)

// AppointmentEvent is the payload carried through the outbox and the broker
// for every appointment lifecycle change.
type AppointmentEvent struct {
	Type        string       `json:"type"`
	Appointment *Appointment `json:"appointment"`
}
