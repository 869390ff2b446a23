package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the urgency bucket derived from a task's deadline
type TaskStatus string

const (
	TaskStatusOnTrack  TaskStatus = "Masih Lama"
	TaskStatusUpcoming TaskStatus = "Mendekati"
	TaskStatusUrgent   TaskStatus = "Mendesak"
)

// TaskStatusOrder is the fixed bucket order used for counts and badges.
var TaskStatusOrder = []TaskStatus{TaskStatusUrgent, TaskStatusUpcoming, TaskStatusOnTrack}

func (s TaskStatus) Valid() bool {
	return s.Rank() > 0
}

// Rank orders buckets for sorting: Urgent 3, Upcoming 2, On Track 1.
func (s TaskStatus) Rank() int {
	switch s {
	case TaskStatusUrgent:
		return 3
	case TaskStatusUpcoming:
		return 2
	case TaskStatusOnTrack:
		return 1
	}
	return 0
}

// Label is the English display name of the bucket
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusUrgent:
		return "Urgent"
	case TaskStatusUpcoming:
		return "Upcoming"
	case TaskStatusOnTrack:
		return "On Track"
	}
	return string(s)
}

type Task struct {
	ID             uuid.UUID    `json:"id"`
	UserID         uuid.UUID    `json:"user_id"`
	Title          string       `json:"title"`
	Deadline       time.Time    `json:"deadline"`
	Status         TaskStatus   `json:"status"`
	Completed      bool         `json:"completed"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	CategoryID     uuid.UUID    `json:"category_id"`
	Description    string       `json:"description,omitempty"`
	CompletionNote string       `json:"completion_note,omitempty"`
	Attachments    []Attachment `json:"attachments"`
	CreatedAt      time.Time    `json:"created_at"`
}

type TaskPatch struct {
	Title       *string    `json:"title"`
	Deadline    *time.Time `json:"deadline"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Description *string    `json:"description"`
}

func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	return t
}
