package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/physiotrack/clinic-api/internal/model"
)

// Dump reads the named collection in full and returns it as one JSON array.
// User rows are stripped of credential and reset-token material before
// serialization.
func (r *snapshotRepository) Dump(ctx context.Context, collection string) (json.RawMessage, int, error) {
	switch collection {
	case model.CollectionUsers:
		var rows []model.User
		if err := r.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY created_at`); err != nil {
			return nil, 0, fmt.Errorf("failed to dump users: %w", err)
		}
		for i := range rows {
			rows[i].StripCredentials()
		}
		return marshalRows(collection, rows, len(rows))

	case model.CollectionServices:
		var rows []model.Service
		if err := r.db.SelectContext(ctx, &rows, `SELECT `+serviceColumns+` FROM services ORDER BY created_at`); err != nil {
			return nil, 0, fmt.Errorf("failed to dump services: %w", err)
		}
		return marshalRows(collection, rows, len(rows))

	case model.CollectionAppointments:
		var rows []model.Appointment
		if err := r.db.SelectContext(ctx, &rows, `SELECT `+appointmentColumns+` FROM appointments ORDER BY created_at`); err != nil {
			return nil, 0, fmt.Errorf("failed to dump appointments: %w", err)
		}
		return marshalRows(collection, rows, len(rows))

	case model.CollectionTestimonials:
		var rows []model.Testimonial
		if err := r.db.SelectContext(ctx, &rows, `SELECT `+testimonialColumns+` FROM testimonials ORDER BY created_at`); err != nil {
			return nil, 0, fmt.Errorf("failed to dump testimonials: %w", err)
		}
		return marshalRows(collection, rows, len(rows))

	case model.CollectionContacts:
		var rows []model.ContactMessage
		if err := r.db.SelectContext(ctx, &rows, `SELECT `+contactColumns+` FROM contacts ORDER BY created_at`); err != nil {
			return nil, 0, fmt.Errorf("failed to dump contacts: %w", err)
		}
		return marshalRows(collection, rows, len(rows))

	default:
		return nil, 0, fmt.Errorf("unknown collection: %s", collection)
	}
}

func marshalRows(collection string, rows any, count int) (json.RawMessage, int, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode %s: %w", collection, err)
	}
	return raw, count, nil
}

// Restore replaces every selected collection with the archive's contents
// inside a single transaction. A failure on any collection rolls back all of
// them; a partial restore would leave appointments pointing at patient and
// service ids that no longer exist.
//
// Two phases: first every selected table is cleared in reverse registry
// order, then rows are inserted in registry order. Appointments carry a
// foreign key to users, so deleting users while the old appointment rows
// still reference them would fail; clearing referencing tables first and
// refilling referenced ones first keeps the constraint satisfied throughout.
func (r *snapshotRepository) Restore(ctx context.Context, archive model.BackupArchive, collections []string) error {
	selected, err := orderedSelection(collections)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restore transaction: %w", err)
	}
	defer tx.Rollback()

	for i := len(selected) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+selected[i]); err != nil {
			return fmt.Errorf("failed to clear %s: %w", selected[i], err)
		}
	}

	for _, name := range selected {
		if err := insertCollection(ctx, tx, name, archive); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}
	return nil
}

// orderedSelection reduces the caller's collection list to registry order,
// rejecting names the registry does not know.
func orderedSelection(collections []string) ([]string, error) {
	requested := make(map[string]bool, len(collections))
	for _, c := range collections {
		requested[c] = true
	}

	ordered := make([]string, 0, len(requested))
	for _, name := range model.BackupCollections {
		if requested[name] {
			ordered = append(ordered, name)
			delete(requested, name)
		}
	}

	for name := range requested {
		return nil, fmt.Errorf("unknown collection: %s", name)
	}
	return ordered, nil
}

func insertCollection(ctx context.Context, tx *sqlx.Tx, name string, archive model.BackupArchive) error {
	switch name {
	case model.CollectionUsers:
		var rows []model.User
		if err := archive.Decode(name, &rows); err != nil {
			return err
		}
		return insertRows(ctx, tx, name, `
			INSERT INTO users (id, name, email, phone, password_hash, role,
				reset_token, reset_token_expiry, created_at, updated_at)
			VALUES (:id, :name, :email, :phone, :password_hash, :role,
				:reset_token, :reset_token_expiry, :created_at, :updated_at)`,
			toAnySlice(rows))

	case model.CollectionServices:
		var rows []model.Service
		if err := archive.Decode(name, &rows); err != nil {
			return err
		}
		return insertRows(ctx, tx, name, `
			INSERT INTO services (id, title, description, benefits, duration, price,
				category, active, show_price, created_at, updated_at)
			VALUES (:id, :title, :description, :benefits, :duration, :price,
				:category, :active, :show_price, :created_at, :updated_at)`,
			toAnySlice(rows))

	case model.CollectionAppointments:
		var rows []model.Appointment
		if err := archive.Decode(name, &rows); err != nil {
			return err
		}
		return insertRows(ctx, tx, name, `
			INSERT INTO appointments (id, patient_id, patient_name, patient_email,
				patient_phone, service_id, service_name, appointment_date, time_slot,
				health_concern, status, notes, origin, created_at, updated_at)
			VALUES (:id, :patient_id, :patient_name, :patient_email,
				:patient_phone, :service_id, :service_name, :appointment_date, :time_slot,
				:health_concern, :status, :notes, :origin, :created_at, :updated_at)`,
			toAnySlice(rows))

	case model.CollectionTestimonials:
		var rows []model.Testimonial
		if err := archive.Decode(name, &rows); err != nil {
			return err
		}
		return insertRows(ctx, tx, name, `
			INSERT INTO testimonials (id, author_name, content, rating, approved,
				featured, created_at, updated_at)
			VALUES (:id, :author_name, :content, :rating, :approved,
				:featured, :created_at, :updated_at)`,
			toAnySlice(rows))

	case model.CollectionContacts:
		var rows []model.ContactMessage
		if err := archive.Decode(name, &rows); err != nil {
			return err
		}
		return insertRows(ctx, tx, name, `
			INSERT INTO contacts (id, name, email, phone, subject, message, read,
				created_at, updated_at)
			VALUES (:id, :name, :email, :phone, :subject, :message, :read,
				:created_at, :updated_at)`,
			toAnySlice(rows))

	default:
		return fmt.Errorf("unknown collection: %s", name)
	}
}

func insertRows(ctx context.Context, tx *sqlx.Tx, name, query string, rows []any) error {
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("failed to restore %s row: %w", name, err)
		}
	}
	return nil
}

func toAnySlice[T any](rows []T) []any {
	out := make([]any, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}
