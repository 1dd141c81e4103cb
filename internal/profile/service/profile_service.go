package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/profile/constants"
	"github.com/narwhalmedia/ottcore/internal/profile/domain"
	"github.com/narwhalmedia/ottcore/internal/profile/repository"
	"github.com/narwhalmedia/ottcore/pkg/auth"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/events"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// AvatarStorage issues upload URLs for profile avatars.
type AvatarStorage interface {
	PresignAvatarUpload(ctx context.Context, key, contentType string) (url string, expiresAt time.Time, err error)
}

// CreateInput describes a new profile. A nil MaturityLevel takes the default
// for the profile kind.
type CreateInput struct {
	Name            string
	IsChildProfile  bool
	MaturityLevel   *int
	PreferredGenres []string
}

// AvatarUpload is a presigned avatar upload target.
type AvatarUpload struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileService handles profile management and active-profile resolution.
type ProfileService struct {
	repo        repository.Repository
	eventBus    interfaces.EventBus
	avatars     AvatarStorage
	logger      interfaces.Logger
	maxProfiles int
}

// NewProfileService creates a new profile service. avatars may be nil when
// uploads are not configured.
func NewProfileService(
	repo repository.Repository,
	eventBus interfaces.EventBus,
	avatars AvatarStorage,
	logger interfaces.Logger,
) *ProfileService {
	return &ProfileService{
		repo:        repo,
		eventBus:    eventBus,
		avatars:     avatars,
		logger:      logger,
		maxProfiles: constants.MaxActiveProfiles,
	}
}

// WithMaxProfiles overrides the per-account active profile cap.
func (s *ProfileService) WithMaxProfiles(n int) *ProfileService {
	if n > 0 {
		s.maxProfiles = n
	}
	return s
}

// Signup creates the account together with its owner profile.
func (s *ProfileService) Signup(ctx context.Context, accountID, ownerName string) (*domain.Profile, error) {
	if accountID == "" {
		return nil, errors.BadRequest("account id is required")
	}

	owner, err := domain.NewProfile(accountID, ownerName, false, nil, nil)
	if err != nil {
		return nil, err
	}
	owner.IsOwner = true

	err = s.withTx(ctx, func(tx repository.Repository) error {
		if err := tx.CreateAccount(ctx, &domain.Account{ID: accountID, IsActive: true}); err != nil {
			return err
		}
		return tx.CreateProfile(ctx, owner)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AccountCreated, accountID, map[string]interface{}{
		"account_id":       accountID,
		"owner_profile_id": owner.ID.String(),
	})
	s.logger.Info("Account created",
		interfaces.String("account_id", accountID),
		interfaces.String("profile_id", owner.ID.String()))

	return owner, nil
}

// CreateProfile adds a non-owner profile. The limit and duplicate-name checks
// run in the same transaction as the insert, under a lock on the account row.
func (s *ProfileService) CreateProfile(ctx context.Context, accountID string, input CreateInput) (*domain.Profile, error) {
	profile, err := domain.NewProfile(accountID, input.Name, input.IsChildProfile, input.MaturityLevel, input.PreferredGenres)
	if err != nil {
		return nil, err
	}

	err = s.withTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}

		count, err := tx.CountActiveProfiles(ctx, accountID)
		if err != nil {
			return err
		}
		if count >= int64(s.maxProfiles) {
			return errors.ProfileLimitExceeded(s.maxProfiles)
		}

		exists, err := tx.ActiveNameExists(ctx, accountID, profile.Name, profile.ID)
		if err != nil {
			return err
		}
		if exists {
			return errors.DuplicateProfileName()
		}

		return tx.CreateProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProfileCreated, profile.ID.String(), map[string]interface{}{
		"account_id": accountID,
		"profile_id": profile.ID.String(),
		"is_child":   profile.IsChildProfile,
	})
	s.logger.Info("Profile created",
		interfaces.String("account_id", accountID),
		interfaces.String("profile_id", profile.ID.String()))

	return profile, nil
}

// UpdateProfile applies a patch to an active profile of the account.
func (s *ProfileService) UpdateProfile(ctx context.Context, accountID string, profileID uuid.UUID, patch domain.Patch) (*domain.Profile, error) {
	var updated *domain.Profile
	err := s.withTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}

		profile, err := tx.GetActiveProfile(ctx, accountID, profileID)
		if err != nil {
			return err
		}
		if err := profile.Apply(patch); err != nil {
			return err
		}

		if patch.Name != nil {
			exists, err := tx.ActiveNameExists(ctx, accountID, profile.Name, profile.ID)
			if err != nil {
				return err
			}
			if exists {
				return errors.DuplicateProfileName()
			}
		}

		if err := tx.UpdateProfile(ctx, profile); err != nil {
			return err
		}
		updated = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProfileUpdated, updated.ID.String(), map[string]interface{}{
		"account_id": accountID,
		"profile_id": updated.ID.String(),
	})
	return updated, nil
}

// DeleteProfile soft-deletes a profile. The owner profile and the last active
// profile cannot be deleted this way.
func (s *ProfileService) DeleteProfile(ctx context.Context, accountID string, profileID uuid.UUID) error {
	err := s.withTx(ctx, func(tx repository.Repository) error {
		account, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		profile, err := tx.GetActiveProfile(ctx, accountID, profileID)
		if err != nil {
			return err
		}

		count, err := tx.CountActiveProfiles(ctx, accountID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return errors.CannotDeleteLastProfile()
		}
		if profile.IsOwner {
			return errors.Forbidden("the owner profile can only be removed with the account")
		}

		if err := tx.DeactivateProfile(ctx, accountID, profileID); err != nil {
			return err
		}
		if account.DefaultProfileID != nil && *account.DefaultProfileID == profileID {
			return tx.SetDefaultProfile(ctx, accountID, nil)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.ProfileDeleted, profileID.String(), map[string]interface{}{
		"account_id": accountID,
		"profile_id": profileID.String(),
	})
	s.logger.Info("Profile deactivated",
		interfaces.String("account_id", accountID),
		interfaces.String("profile_id", profileID.String()))
	return nil
}

// ListProfiles returns the active profiles, owner first then by creation.
func (s *ProfileService) ListProfiles(ctx context.Context, accountID string) ([]*domain.Profile, error) {
	return s.repo.ListActiveProfiles(ctx, accountID)
}

// GetProfile returns an active profile of the account.
func (s *ProfileService) GetProfile(ctx context.Context, accountID string, profileID uuid.UUID) (*domain.Profile, error) {
	return s.repo.GetActiveProfile(ctx, accountID, profileID)
}

// SetDefaultProfile stores the profile used when a request names none.
func (s *ProfileService) SetDefaultProfile(ctx context.Context, accountID string, profileID uuid.UUID) error {
	if _, err := s.repo.GetActiveProfile(ctx, accountID, profileID); err != nil {
		return err
	}
	if err := s.repo.SetDefaultProfile(ctx, accountID, &profileID); err != nil {
		return err
	}

	s.publish(ctx, events.DefaultProfileSet, accountID, map[string]interface{}{
		"account_id": accountID,
		"profile_id": profileID.String(),
	})
	return nil
}

// ResolveActiveProfile picks the profile a request acts as. An explicit id
// wins, then the token's profile_id claim, then its default_profile_id claim,
// then the account's stored default. With nothing to resolve it returns
// ProfileRequired when required is set and nil otherwise.
//
// Every miss on an explicit id reports ProfileNotFound, whether the profile
// does not exist, is inactive or belongs to another account.
func (s *ProfileService) ResolveActiveProfile(ctx context.Context, principal *auth.Principal, explicitID string, required bool) (*domain.Profile, error) {
	if principal == nil {
		return nil, errors.InvalidToken()
	}

	if explicitID != "" {
		id, err := domain.ParseProfileID(explicitID)
		if err != nil {
			return nil, err
		}
		return s.repo.GetActiveProfile(ctx, principal.AccountID, id)
	}

	for _, claim := range []string{principal.ProfileID, principal.DefaultProfileID} {
		if claim == "" {
			continue
		}
		profile, err := s.lookupFallback(ctx, principal.AccountID, claim)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			return profile, nil
		}
	}

	account, err := s.repo.GetAccount(ctx, principal.AccountID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if account != nil && account.DefaultProfileID != nil {
		profile, err := s.repo.GetActiveProfile(ctx, principal.AccountID, *account.DefaultProfileID)
		if err == nil {
			return profile, nil
		}
		if !errors.HasCode(err, errors.CodeProfileNotFound) {
			return nil, err
		}
	}

	if required {
		return nil, errors.ProfileRequired()
	}
	return nil, nil
}

// lookupFallback resolves a claim-carried profile id. Stale or malformed
// claims are skipped so the next fallback can apply.
func (s *ProfileService) lookupFallback(ctx context.Context, accountID, raw string) (*domain.Profile, error) {
	id, err := domain.ParseProfileID(raw)
	if err != nil {
		s.logger.Debug("Ignoring unusable profile claim", interfaces.String("account_id", accountID))
		return nil, nil
	}

	profile, err := s.repo.GetActiveProfile(ctx, accountID, id)
	if err != nil {
		if errors.HasCode(err, errors.CodeProfileNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

// AvatarUploadURL returns a presigned upload target for the profile avatar and
// records the object key on the profile.
func (s *ProfileService) AvatarUploadURL(ctx context.Context, accountID string, profileID uuid.UUID, contentType string) (*AvatarUpload, error) {
	if s.avatars == nil {
		return nil, errors.Internal("avatar uploads are not configured")
	}

	profile, err := s.repo.GetActiveProfile(ctx, accountID, profileID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s", accountID, profile.ID)
	url, expiresAt, err := s.avatars.PresignAvatarUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to presign avatar upload: %w", err)
	}

	profile.AvatarKey = key
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	return &AvatarUpload{URL: url, Key: key, ExpiresAt: expiresAt}, nil
}

func (s *ProfileService) withTx(ctx context.Context, fn func(tx repository.Repository) error) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction", interfaces.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// publish delivers an event after the local commit. A failure is logged and
// does not undo the committed change.
func (s *ProfileService) publish(ctx context.Context, eventType, aggregateID string, data map[string]interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, events.NewAggregateEvent(eventType, aggregateID, data)); err != nil {
		s.logger.Warn("Failed to publish event",
			interfaces.String("event_type", eventType),
			interfaces.String("aggregate_id", aggregateID),
			interfaces.Error(err))
	}
}
