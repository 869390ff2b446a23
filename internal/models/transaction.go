package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "Masuk"
	TransactionTypeExpense TransactionType = "Keluar"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction amounts are always positive; the direction is carried by Type.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	AccountID   uuid.UUID       `json:"account_id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Attachments []Attachment    `json:"attachments"`
	CreatedAt   time.Time       `json:"created_at"`
}

type TransactionPatch struct {
	AccountID   *uuid.UUID       `json:"account_id"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	Amount      *int64           `json:"amount"`
	Type        *TransactionType `json:"type"`
	Date        *time.Time       `json:"date"`
	Description *string          `json:"description"`
}

func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	return t
}
