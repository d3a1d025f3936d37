package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/physiotrack/clinic-api/internal/email"
	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/schedule"
	"github.com/physiotrack/clinic-api/pkg/messaging"
)

// Channel is the broker channel carrying appointment lifecycle events.
const Channel = "appointments"

// Dispatcher consumes appointment events from the broker and sends the
// matching patient and admin emails. Delivery failures are logged and
// dropped; a bounced email never touches booking state.
type Dispatcher struct {
	broker     messaging.Broker
	sender     email.Sender
	adminEmail string
	logger     *zerolog.Logger
}

func NewDispatcher(broker messaging.Broker, sender email.Sender, adminEmail string, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		broker:     broker,
		sender:     sender,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// Run subscribes to the appointment channel and dispatches until the context
// is cancelled or the broker closes the channel.
func (d *Dispatcher) Run(ctx context.Context) error {
	messages, err := d.broker.Subscribe(ctx, Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", Channel, err)
	}

	d.logger.Info().Str("channel", Channel).Msg("notification dispatcher started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			d.handle(msg)
		}
	}
}

func (d *Dispatcher) handle(raw []byte) {
	var event model.AppointmentEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		d.logger.Error().Err(err).Msg("failed to decode appointment event")
		return
	}
	if event.Appointment == nil {
		d.logger.Error().Str("type", event.Type).Msg("appointment event without appointment payload")
		return
	}

	apt := event.Appointment
	subject, body, notifyAdmin := d.compose(event.Type, apt)
	if subject == "" {
		d.logger.Debug().Str("type", event.Type).Msg("ignoring unhandled event type")
		return
	}

	if err := d.sender.Send(apt.PatientEmail, subject, body); err != nil {
		d.logger.Error().Err(err).
			Str("type", event.Type).
			Str("appointment_id", apt.ID.String()).
			Msg("failed to send patient notification")
	}

	if notifyAdmin && d.adminEmail != "" {
		adminSubject := fmt.Sprintf("New booking: %s on %s", apt.ServiceName, apt.AppointmentDate.Format(schedule.DateFormat))
		adminBody := fmt.Sprintf(
			"<p>%s booked %s on %s at %s.</p><p>Phone: %s<br>Email: %s</p>",
			apt.PatientName, apt.ServiceName,
			apt.AppointmentDate.Format(schedule.DateFormat), apt.TimeSlot,
			apt.PatientPhone, apt.PatientEmail,
		)
		if err := d.sender.Send(d.adminEmail, adminSubject, adminBody); err != nil {
			d.logger.Error().Err(err).
				Str("appointment_id", apt.ID.String()).
				Msg("failed to send admin notification")
		}
	}
}

// compose builds the patient-facing email for an event type. The returned
// bool requests an additional admin copy.
func (d *Dispatcher) compose(eventType string, apt *model.Appointment) (string, string, bool) {
	date := apt.AppointmentDate.Format(schedule.DateFormat)
	when := fmt.Sprintf("%s at %s", date, apt.TimeSlot)

	switch eventType {
	case model.EventAppointmentCreated:
		subject := "We received your booking request"
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your booking request for <strong>%s</strong> on %s has been received. We will confirm it shortly.</p>",
			apt.PatientName, apt.ServiceName, when,
		)
		return subject, body, true
	case model.EventAppointmentConfirmed:
		subject := "Your appointment is confirmed"
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your <strong>%s</strong> appointment on %s is confirmed. See you then!</p>",
			apt.PatientName, apt.ServiceName, when,
		)
		return subject, body, false
	case model.EventAppointmentCancelled:
		subject := "Your appointment was cancelled"
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your <strong>%s</strong> appointment on %s has been cancelled. You can book a new slot any time.</p>",
			apt.PatientName, apt.ServiceName, when,
		)
		return subject, body, false
	case model.EventAppointmentCompleted:
		subject := "Thanks for visiting us"
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Thanks for attending your <strong>%s</strong> session. We would love to hear your feedback.</p>",
			apt.PatientName, apt.ServiceName,
		)
		return subject, body, false
	}
	return "", "", false
}
