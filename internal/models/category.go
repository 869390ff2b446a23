package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryType restricts which kind of record may reference a category
type CategoryType string

const (
	CategoryTypeTransaction CategoryType = "transaction"
	CategoryTypeTask        CategoryType = "task"
	CategoryTypeNote        CategoryType = "note"
)

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeTransaction, CategoryTypeTask, CategoryTypeNote:
		return true
	}
	return false
}

const (
	// FallbackCategoryName is shown for records whose category was deleted
	FallbackCategoryName  = "Other"
	FallbackCategoryColor = "#9CA3AF"
)

type Category struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	Color     string       `json:"color"`
	CreatedAt time.Time    `json:"created_at"`
}

type CategoryPatch struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	return c
}
