package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/narwhalmedia/ottcore/internal/profile/domain"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	pkgrepo "github.com/narwhalmedia/ottcore/pkg/repository"
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM repository
func NewGormRepository(db *gorm.DB) Repository {
	return &GormRepository{db: db}
}

// BeginTx starts a new transaction
func (r *GormRepository) BeginTx(ctx context.Context) (Repository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &GormRepository{db: tx}, nil
}

// Commit commits the transaction
func (r *GormRepository) Commit() error {
	return r.db.Commit().Error
}

// Rollback rolls back the transaction
func (r *GormRepository) Rollback() error {
	return r.db.Rollback().Error
}

// Account operations

func (r *GormRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	return pkgrepo.Create(ctx, r.db, account, errors.Conflict("account already exists"))
}

func (r *GormRepository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return pkgrepo.FirstWhere[domain.Account](ctx, r.db, errors.NotFound("account not found"),
		"id = ? AND is_active = ?", id, true)
}

func (r *GormRepository) LockAccount(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "id = ? AND is_active = ?", id, true).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("account not found")
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return &account, nil
}

func (r *GormRepository) SetDefaultProfile(ctx context.Context, accountID string, profileID *uuid.UUID) error {
	return pkgrepo.UpdateWhere[domain.Account](ctx, r.db, errors.NotFound("account not found"),
		map[string]interface{}{"default_profile_id": profileID}, "id = ?", accountID)
}

// Profile operations

func (r *GormRepository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return pkgrepo.Create(ctx, r.db, profile, nil)
}

func (r *GormRepository) GetActiveProfile(ctx context.Context, accountID string, id uuid.UUID) (*domain.Profile, error) {
	return pkgrepo.FirstWhere[domain.Profile](ctx, r.db, errors.ProfileNotFound(),
		"id = ? AND account_id = ? AND is_active = ?", id, accountID, true)
}

func (r *GormRepository) ListActiveProfiles(ctx context.Context, accountID string) ([]*domain.Profile, error) {
	var profiles []*domain.Profile
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_active = ?", accountID, true).
		Order("is_owner DESC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

func (r *GormRepository) CountActiveProfiles(ctx context.Context, accountID string) (int64, error) {
	return pkgrepo.CountWhere[domain.Profile](ctx, r.db, "account_id = ? AND is_active = ?", accountID, true)
}

func (r *GormRepository) ActiveNameExists(ctx context.Context, accountID, name string, exclude uuid.UUID) (bool, error) {
	count, err := pkgrepo.CountWhere[domain.Profile](ctx, r.db,
		"account_id = ? AND is_active = ? AND name = ? AND id <> ?", accountID, true, name, exclude)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	result := r.db.WithContext(ctx).Model(profile).
		Where("account_id = ? AND is_active = ?", profile.AccountID, true).
		Select("name", "is_child", "maturity_level", "preferred_genres", "avatar_key", "updated_at").
		Updates(profile)
	if result.Error != nil {
		return fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ProfileNotFound()
	}
	return nil
}

func (r *GormRepository) DeactivateProfile(ctx context.Context, accountID string, id uuid.UUID) error {
	return pkgrepo.UpdateWhere[domain.Profile](ctx, r.db, errors.ProfileNotFound(),
		map[string]interface{}{"is_active": false},
		"id = ? AND account_id = ? AND is_active = ?", id, accountID, true)
}
