package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/profile/domain"
)

// AccountRepository defines methods for account operations.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	// LockAccount takes a row lock on the account for the rest of the transaction.
	LockAccount(ctx context.Context, id string) (*domain.Account, error)
	SetDefaultProfile(ctx context.Context, accountID string, profileID *uuid.UUID) error
}

// ProfileRepository defines methods for profile operations. Every lookup is
// scoped to an account and to active rows.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *domain.Profile) error
	GetActiveProfile(ctx context.Context, accountID string, id uuid.UUID) (*domain.Profile, error)
	ListActiveProfiles(ctx context.Context, accountID string) ([]*domain.Profile, error)
	CountActiveProfiles(ctx context.Context, accountID string) (int64, error)
	ActiveNameExists(ctx context.Context, accountID, name string, exclude uuid.UUID) (bool, error)
	UpdateProfile(ctx context.Context, profile *domain.Profile) error
	DeactivateProfile(ctx context.Context, accountID string, id uuid.UUID) error
}

// Repository aggregates account and profile repositories.
type Repository interface {
	AccountRepository
	ProfileRepository

	// Transaction support
	BeginTx(ctx context.Context) (Repository, error)
	Commit() error
	Rollback() error
}
