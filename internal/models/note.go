package models

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Pinned      bool         `json:"pinned"`
	CategoryID  uuid.UUID    `json:"category_id"`
	Attachments []Attachment `json:"attachments"`
}

type NotePatch struct {
	Title      *string    `json:"title"`
	Content    *string    `json:"content"`
	Pinned     *bool      `json:"pinned"`
	CategoryID *uuid.UUID `json:"category_id"`
}

func (p NotePatch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	if p.CategoryID != nil {
		n.CategoryID = *p.CategoryID
	}
	return n
}
