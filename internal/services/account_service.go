package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-transfers/internal/auth"
	"github.com/baharkarakas/insider-transfers/internal/models"
	repo "github.com/baharkarakas/insider-transfers/internal/repository"
)

// AccountService provisions accounts and issues tokens. It never moves
// funds; balances change only through TransferService.
type AccountService struct {
	r  repo.Accounts
	tm *auth.TokenManager
}

func NewAccountService(r repo.Accounts, tm *auth.TokenManager) *AccountService {
	return &AccountService{r: r, tm: tm}
}

// Register creates a user account with a zero balance.
func (s *AccountService) Register(ctx context.Context, email, password string) (models.Account, error) {
	return s.Provision(ctx, email, password, models.RoleUser, decimal.Zero)
}

// Provision creates an account with an opening balance. Used by operators
// and seeding.
func (s *AccountService) Provision(ctx context.Context, email, password, role string, balance decimal.Decimal) (models.Account, error) {
	a := models.Account{
		Email:         strings.ToLower(strings.TrimSpace(email)),
		AccountNumber: NewAccountNumber(),
		Role:          role,
		Balance:       balance.Round(models.MoneyScale),
	}
	if err := a.Validate(); err != nil {
		return models.Account{}, &TransferError{Kind: ErrInvalidInput, Reason: err.Error()}
	}

	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrWeakPassword) {
		return models.Account{}, &TransferError{Kind: ErrInvalidInput, Reason: err.Error()}
	}
	if err != nil {
		return models.Account{}, err
	}
	a.PasswordHash = hash

	created, err := s.r.Create(ctx, a)
	if errors.Is(err, repo.ErrDuplicate) {
		return models.Account{}, fail(ErrConflict, "An account with this email already exists.")
	}
	return created, err
}

// Login checks credentials and returns a fresh token pair.
func (s *AccountService) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	a, err := s.r.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repo.ErrNotFound) {
		return auth.TokenPair{}, fail(ErrUnauthorized, "Invalid email or password.")
	}
	if err != nil {
		return auth.TokenPair{}, err
	}
	if err := auth.VerifyPassword(password, a.PasswordHash); err != nil {
		return auth.TokenPair{}, fail(ErrUnauthorized, "Invalid email or password.")
	}
	return s.tm.GeneratePair(a.ID, a.Role)
}

// Refresh exchanges a refresh token for a new pair. The account must still
// exist; its current role is used.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.tm.ParseRefresh(refreshToken)
	if err != nil {
		return auth.TokenPair{}, fail(ErrUnauthorized, "Invalid refresh token.")
	}
	a, err := s.r.GetByID(ctx, claims.AccountID)
	if errors.Is(err, repo.ErrNotFound) {
		return auth.TokenPair{}, fail(ErrUnauthorized, "Invalid refresh token.")
	}
	if err != nil {
		return auth.TokenPair{}, err
	}
	return s.tm.GeneratePair(a.ID, a.Role)
}

func (s *AccountService) Get(ctx context.Context, id int64) (models.Account, error) {
	a, err := s.r.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Account{}, fail(ErrNotFound, msgAccountNotFound, id)
	}
	return a, err
}

// NewAccountNumber returns "TR" followed by 16 digits taken from a random UUID.
func NewAccountNumber() string {
	id := uuid.New()
	var b strings.Builder
	b.WriteString("TR")
	for _, c := range id[:8] {
		b.WriteByte('0' + c%10)
		b.WriteByte('0' + (c/10)%10)
	}
	return b.String()
}
