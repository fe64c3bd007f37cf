package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account is the balance holder moved by the transfer engine. Balance is only
// ever written by a repository unit of work that holds the row lock.
type Account struct {
	ID            int64           `json:"id"`
	Email         string          `json:"email"`
	AccountNumber string          `json:"account"`
	PasswordHash  string          `json:"-"`
	Role          string          `json:"role"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AccountSummary is the related-account view embedded in transfer listings.
type AccountSummary struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	AccountNumber string `json:"account"`
}

func (a Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Email: a.Email, AccountNumber: a.AccountNumber}
}

func (a *Account) Validate() error {
	a.Email = strings.TrimSpace(a.Email)
	if !strings.Contains(a.Email, "@") {
		return errors.New("invalid email")
	}
	if a.Role == "" {
		a.Role = RoleUser
	}
	if a.Role != RoleUser && a.Role != RoleAdmin {
		return errors.New("invalid role")
	}
	if a.Balance.IsNegative() {
		return errors.New("balance must be >= 0")
	}
	return nil
}
