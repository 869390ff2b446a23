package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountTypeBank    AccountType = "Bank"
	AccountTypeEWallet AccountType = "E-Wallet"
	AccountTypeCash    AccountType = "Cash"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeBank, AccountTypeEWallet, AccountTypeCash:
		return true
	}
	return false
}

// Account holds a balance in minor currency units. The balance is set by the
// user and is never derived from transactions.
type Account struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Balance   int64       `json:"balance"`
	CreatedAt time.Time   `json:"created_at"`
}

// AccountPatch is a partial update; nil fields are left untouched.
type AccountPatch struct {
	Name    *string      `json:"name"`
	Type    *AccountType `json:"type"`
	Balance *int64       `json:"balance"`
}

func (p AccountPatch) Apply(a Account) Account {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	return a
}
