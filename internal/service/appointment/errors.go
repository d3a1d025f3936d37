package appointment

import (
	apperrors "github.com/physiotrack/clinic-api/pkg/errors"
)

// Domain errors returned by the availability resolver, booking writer and
// status transition handler. Conflict errors tell the client to re-fetch
// availability and pick another slot; bad-request errors mean the input
// itself must change.
var (
	ErrInvalidDate        = apperrors.BadRequest("invalid date, expected YYYY-MM-DD", nil)
	ErrClosedDay          = apperrors.BadRequest("the clinic is closed on Sundays", nil)
	ErrPastDate           = apperrors.BadRequest("date cannot be in the past", nil)
	ErrInvalidSlot        = apperrors.BadRequest("time slot is not part of the clinic schedule", nil)
	ErrServiceUnavailable = apperrors.BadRequest("service is not available for booking", nil)
	ErrInvalidStatus      = apperrors.BadRequest("invalid appointment status", nil)
	ErrSlotTaken          = apperrors.Conflict("time slot is already booked, please choose another", nil)
	ErrTerminalStatus     = apperrors.Conflict("appointment is already in a terminal status", nil)
	ErrNotFound           = apperrors.NotFound("appointment", nil)
)
