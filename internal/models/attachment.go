package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AttachmentType string

const (
	AttachmentTypeImage AttachmentType = "image"
	AttachmentTypePDF   AttachmentType = "pdf"
)

// OwnerKind is the persisted discriminator of an attachment owner
type OwnerKind string

const (
	OwnerKindTransaction OwnerKind = "transaction"
	OwnerKindTask        OwnerKind = "task"
	OwnerKindNote        OwnerKind = "note"
)

// Owner is the record an attachment belongs to. The set of implementations is
// closed: TransactionOwner, TaskOwner and NoteOwner.
type Owner interface {
	Kind() OwnerKind
	OwnerID() uuid.UUID
	isOwner()
}

type TransactionOwner struct{ ID uuid.UUID }

type TaskOwner struct{ ID uuid.UUID }

type NoteOwner struct{ ID uuid.UUID }

func (o TransactionOwner) Kind() OwnerKind    { return OwnerKindTransaction }
func (o TransactionOwner) OwnerID() uuid.UUID { return o.ID }
func (TransactionOwner) isOwner()             {}

func (o TaskOwner) Kind() OwnerKind    { return OwnerKindTask }
func (o TaskOwner) OwnerID() uuid.UUID { return o.ID }
func (TaskOwner) isOwner()             {}

func (o NoteOwner) Kind() OwnerKind    { return OwnerKindNote }
func (o NoteOwner) OwnerID() uuid.UUID { return o.ID }
func (NoteOwner) isOwner()             {}

// OwnerFromParts rebuilds an Owner from its persisted (type, id) pair.
func OwnerFromParts(kind string, id uuid.UUID) (Owner, error) {
	switch OwnerKind(kind) {
	case OwnerKindTransaction:
		return TransactionOwner{ID: id}, nil
	case OwnerKindTask:
		return TaskOwner{ID: id}, nil
	case OwnerKindNote:
		return NoteOwner{ID: id}, nil
	}
	return nil, fmt.Errorf("unknown attachment owner type: %q", kind)
}

// SameOwner reports whether two owners reference the same record
func SameOwner(a, b Owner) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Kind() == b.Kind() && a.OwnerID() == b.OwnerID()
}

type Attachment struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Owner     Owner          `json:"-"`
	Name      string         `json:"name"`
	Type      AttachmentType `json:"type"`
	URL       string         `json:"url"`
	Path      string         `json:"path"`
	Size      int64          `json:"size"`
	CreatedAt time.Time      `json:"created_at"`
}

func (a Attachment) MarshalJSON() ([]byte, error) {
	type plain Attachment
	out := struct {
		plain
		AttachableType OwnerKind `json:"attachable_type,omitempty"`
		AttachableID   uuid.UUID `json:"attachable_id"`
	}{plain: plain(a)}
	if a.Owner != nil {
		out.AttachableType = a.Owner.Kind()
		out.AttachableID = a.Owner.OwnerID()
	}
	return json.Marshal(out)
}
