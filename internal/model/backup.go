package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type BackupType string

// Backup type labels. The API and the scheduler produce manual and auto;
// complete and incremental are accepted on stored rows for compatibility
// with archives imported from the previous system. Every archive holds the
// full contents of its collections either way.
const (
	BackupTypeManual      BackupType = "manual"
	BackupTypeAuto        BackupType = "auto"
	BackupTypeComplete    BackupType = "complete"
	BackupTypeIncremental BackupType = "incremental"
)

func (t BackupType) Valid() bool {
	switch t {
	case BackupTypeManual, BackupTypeAuto, BackupTypeComplete, BackupTypeIncremental:
		return true
	}
	return false
}

// Collection names recognised by the backup engine. The order here is the
// restore order: referenced entities load before the rows that point at them.
const (
	CollectionUsers        = "users"
	CollectionServices     = "services"
	CollectionAppointments = "appointments"
	CollectionTestimonials = "testimonials"
	CollectionContacts     = "contacts"
)

// BackupCollections lists every collection included in an "all" backup.
var BackupCollections = []string{
	CollectionUsers,
	CollectionServices,
	CollectionAppointments,
	CollectionTestimonials,
	CollectionContacts,
}

// Backup is an immutable snapshot of one or more collections. The Data blob
// is a BackupArchive; rows are never mutated after creation.
type Backup struct {
	Base
	Name        string         `db:"name" json:"name"`
	Type        BackupType     `db:"type" json:"type"`
	SizeBytes   int64          `db:"size_bytes" json:"size_bytes"`
	Data        []byte         `db:"data" json:"-"`
	Collections pq.StringArray `db:"collections" json:"collections"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	ExpiresAt   *time.Time     `db:"expires_at" json:"expires_at,omitempty"`
}

// BackupArchive is the serialized bag of collections: one homogeneous JSON
// array per collection name. Typed encode/decode lives at the edges so the
// blob keeps its one-blob-many-collections shape on the wire.
type BackupArchive map[string]json.RawMessage

// Put marshals rows into the archive under name.
func (a BackupArchive) Put(name string, rows any) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", name, err)
	}
	a[name] = raw
	return nil
}

// Decode unmarshals the named collection into out, which must be a pointer
// to a slice of the collection's record type.
func (a BackupArchive) Decode(name string, out any) error {
	raw, ok := a[name]
	if !ok {
		return fmt.Errorf("collection %s not present in archive", name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode collection %s: %w", name, err)
	}
	return nil
}

type CreateBackupRequest struct {
	Name        string   `json:"name" binding:"max=150"`
	Collections []string `json:"collections"`
}

type RestoreBackupRequest struct {
	BackupID    string          `json:"backup_id" binding:"omitempty,uuid"`
	Archive     json.RawMessage `json:"archive,omitempty"`
	Collections []string        `json:"collections"`
}
