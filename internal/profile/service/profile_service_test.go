package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/narwhalmedia/ottcore/internal/profile/domain"
	"github.com/narwhalmedia/ottcore/internal/profile/repository"
	"github.com/narwhalmedia/ottcore/internal/profile/service"
	"github.com/narwhalmedia/ottcore/pkg/auth"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/events"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/logger"
	"github.com/narwhalmedia/ottcore/test/testutil"
)

type mockAvatarStorage struct {
	mock.Mock
}

func (m *mockAvatarStorage) PresignAvatarUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

type recordingHandler struct {
	eventType string
	mu        sync.Mutex
	received  []interfaces.Event
}

func (h *recordingHandler) Handle(_ context.Context, event interfaces.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = append(h.received, event)
	return nil
}

func (h *recordingHandler) EventType() string { return h.eventType }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

type ProfileServiceTestSuite struct {
	suite.Suite

	ctx       context.Context
	repo      repository.Repository
	avatars   *mockAvatarStorage
	created   *recordingHandler
	deleted   *recordingHandler
	service   *service.ProfileService
	accountID string
	owner     *domain.Profile
}

func (suite *ProfileServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.repo = repository.NewGormRepository(testutil.NewTestDB(suite.T()))
	suite.avatars = new(mockAvatarStorage)

	log := logger.NewNoopLogger()
	bus := events.NewLocalEventBus(log)
	suite.created = &recordingHandler{eventType: events.ProfileCreated}
	suite.deleted = &recordingHandler{eventType: events.ProfileDeleted}
	suite.Require().NoError(bus.Subscribe(events.ProfileCreated, suite.created))
	suite.Require().NoError(bus.Subscribe(events.ProfileDeleted, suite.deleted))

	suite.service = service.NewProfileService(suite.repo, bus, suite.avatars, log)

	suite.accountID = testutil.NewAccountID()
	owner, err := suite.service.Signup(suite.ctx, suite.accountID, "Owner")
	suite.Require().NoError(err)
	suite.owner = owner
}

func (suite *ProfileServiceTestSuite) TearDownTest() {
	suite.avatars.AssertExpectations(suite.T())
}

func (suite *ProfileServiceTestSuite) createProfile(name string, child bool) *domain.Profile {
	profile, err := suite.service.CreateProfile(suite.ctx, suite.accountID, service.CreateInput{
		Name:           name,
		IsChildProfile: child,
	})
	suite.Require().NoError(err)
	return profile
}

func (suite *ProfileServiceTestSuite) TestSignup_CreatesOwner() {
	// Act
	profiles, err := suite.service.ListProfiles(suite.ctx, suite.accountID)

	// Assert
	suite.Require().NoError(err)
	suite.Require().Len(profiles, 1)
	suite.True(profiles[0].IsOwner)
	suite.Equal("Owner", profiles[0].Name)
	suite.Equal(18, profiles[0].MaturityLevel)
}

func (suite *ProfileServiceTestSuite) TestSignup_Twice() {
	// Act
	_, err := suite.service.Signup(suite.ctx, suite.accountID, "Again")

	// Assert
	suite.True(errors.IsConflict(err))
}

func (suite *ProfileServiceTestSuite) TestCreateProfile_ChildDefaults() {
	// Act
	kid := suite.createProfile("Kid", true)

	// Assert
	suite.True(kid.IsChildProfile)
	suite.False(kid.IsOwner)
	suite.Equal(12, kid.MaturityLevel)
	suite.Equal(1, suite.created.count())
}

func (suite *ProfileServiceTestSuite) TestCreateProfile_LimitExceeded() {
	// Arrange
	for _, name := range []string{"Two", "Three", "Four", "Five"} {
		suite.createProfile(name, false)
	}

	// Act
	profile, err := suite.service.CreateProfile(suite.ctx, suite.accountID, service.CreateInput{Name: "Six"})

	// Assert
	suite.Nil(profile)
	suite.True(errors.HasCode(err, errors.CodeProfileLimitExceeded))

	count, err := suite.repo.CountActiveProfiles(suite.ctx, suite.accountID)
	suite.Require().NoError(err)
	suite.EqualValues(5, count)
}

func (suite *ProfileServiceTestSuite) TestCreateProfile_SlotFreedByDelete() {
	// Arrange
	var last *domain.Profile
	for _, name := range []string{"Two", "Three", "Four", "Five"} {
		last = suite.createProfile(name, false)
	}
	suite.Require().NoError(suite.service.DeleteProfile(suite.ctx, suite.accountID, last.ID))

	// Act
	_, err := suite.service.CreateProfile(suite.ctx, suite.accountID, service.CreateInput{Name: "Five"})

	// Assert
	suite.NoError(err)
}

func (suite *ProfileServiceTestSuite) TestCreateProfile_DuplicateName() {
	// Arrange
	suite.createProfile("Kid", true)

	// Act
	_, err := suite.service.CreateProfile(suite.ctx, suite.accountID, service.CreateInput{Name: " Kid "})

	// Assert
	suite.True(errors.HasCode(err, errors.CodeDuplicateProfileName))
}

func (suite *ProfileServiceTestSuite) TestCreateProfile_NamesAreCaseSensitive() {
	// Arrange
	suite.createProfile("Kid", true)

	// Act
	_, err := suite.service.CreateProfile(suite.ctx, suite.accountID, service.CreateInput{Name: "kid"})

	// Assert
	suite.NoError(err)
}

func (suite *ProfileServiceTestSuite) TestCreateProfile_UnknownAccount() {
	// Act
	_, err := suite.service.CreateProfile(suite.ctx, testutil.NewAccountID(), service.CreateInput{Name: "Kid"})

	// Assert
	suite.True(errors.IsNotFound(err))
}

func (suite *ProfileServiceTestSuite) TestUpdateProfile() {
	// Arrange
	kid := suite.createProfile("Kid", true)
	name := "Junior"
	level := 7

	// Act
	updated, err := suite.service.UpdateProfile(suite.ctx, suite.accountID, kid.ID, domain.Patch{
		Name:          &name,
		MaturityLevel: &level,
	})

	// Assert
	suite.Require().NoError(err)
	suite.Equal("Junior", updated.Name)

	stored, err := suite.service.GetProfile(suite.ctx, suite.accountID, kid.ID)
	suite.Require().NoError(err)
	suite.Equal("Junior", stored.Name)
	suite.Equal(7, stored.MaturityLevel)
}

func (suite *ProfileServiceTestSuite) TestUpdateProfile_DuplicateName() {
	// Arrange
	kid := suite.createProfile("Kid", true)
	name := "Owner"

	// Act
	_, err := suite.service.UpdateProfile(suite.ctx, suite.accountID, kid.ID, domain.Patch{Name: &name})

	// Assert
	suite.True(errors.HasCode(err, errors.CodeDuplicateProfileName))
}

func (suite *ProfileServiceTestSuite) TestUpdateProfile_OtherAccount() {
	// Arrange
	other := testutil.NewAccountID()
	_, err := suite.service.Signup(suite.ctx, other, "Stranger")
	suite.Require().NoError(err)
	name := "Hijacked"

	// Act
	_, err = suite.service.UpdateProfile(suite.ctx, other, suite.owner.ID, domain.Patch{Name: &name})

	// Assert
	suite.True(errors.HasCode(err, errors.CodeProfileNotFound))
}

func (suite *ProfileServiceTestSuite) TestDeleteProfile_LastProfile() {
	// Act
	err := suite.service.DeleteProfile(suite.ctx, suite.accountID, suite.owner.ID)

	// Assert
	suite.True(errors.HasCode(err, errors.CodeCannotDeleteLastProfile))
}

func (suite *ProfileServiceTestSuite) TestDeleteProfile_Owner() {
	// Arrange
	suite.createProfile("Kid", true)

	// Act
	err := suite.service.DeleteProfile(suite.ctx, suite.accountID, suite.owner.ID)

	// Assert
	suite.True(errors.IsForbidden(err))
}

func (suite *ProfileServiceTestSuite) TestDeleteProfile_SoftDeletesAndClearsDefault() {
	// Arrange
	kid := suite.createProfile("Kid", true)
	suite.Require().NoError(suite.service.SetDefaultProfile(suite.ctx, suite.accountID, kid.ID))

	// Act
	err := suite.service.DeleteProfile(suite.ctx, suite.accountID, kid.ID)

	// Assert
	suite.Require().NoError(err)
	suite.Equal(1, suite.deleted.count())

	_, err = suite.service.GetProfile(suite.ctx, suite.accountID, kid.ID)
	suite.True(errors.HasCode(err, errors.CodeProfileNotFound))

	account, err := suite.repo.GetAccount(suite.ctx, suite.accountID)
	suite.Require().NoError(err)
	suite.Nil(account.DefaultProfileID)

	err = suite.service.DeleteProfile(suite.ctx, suite.accountID, kid.ID)
	suite.True(errors.HasCode(err, errors.CodeProfileNotFound))
}

func (suite *ProfileServiceTestSuite) TestListProfiles_OwnerFirst() {
	// Arrange
	suite.createProfile("Alpha", false)
	suite.createProfile("Beta", true)

	// Act
	profiles, err := suite.service.ListProfiles(suite.ctx, suite.accountID)

	// Assert
	suite.Require().NoError(err)
	suite.Require().Len(profiles, 3)
	suite.Equal(suite.owner.ID, profiles[0].ID)
	suite.Equal("Alpha", profiles[1].Name)
	suite.Equal("Beta", profiles[2].Name)
}

func (suite *ProfileServiceTestSuite) TestResolveActiveProfile_Order() {
	// Arrange
	explicit := suite.createProfile("Explicit", false)
	claimed := suite.createProfile("Claimed", false)
	defaulted := suite.createProfile("Defaulted", false)
	stored := suite.createProfile("Stored", false)
	suite.Require().NoError(suite.service.SetDefaultProfile(suite.ctx, suite.accountID, stored.ID))

	principal := testutil.NewPrincipal(suite.accountID)
	principal.ProfileID = claimed.ID.String()
	principal.DefaultProfileID = defaulted.ID.String()

	tests := []struct {
		name      string
		principal auth.Principal
		explicit  string
		want      uuid.UUID
	}{
		{"explicit id wins", *principal, explicit.ID.String(), explicit.ID},
		{"profile claim", *principal, "", claimed.ID},
		{"default claim", auth.Principal{AccountID: suite.accountID, DefaultProfileID: defaulted.ID.String()}, "", defaulted.ID},
		{"stored default", auth.Principal{AccountID: suite.accountID}, "", stored.ID},
		{"stale claim falls through", auth.Principal{AccountID: suite.accountID, ProfileID: uuid.NewString()}, "", stored.ID},
		{"malformed claim falls through", auth.Principal{AccountID: suite.accountID, ProfileID: "x"}, "", stored.ID},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			p := tt.principal

			// Act
			profile, err := suite.service.ResolveActiveProfile(suite.ctx, &p, tt.explicit, true)

			// Assert
			suite.Require().NoError(err)
			suite.Equal(tt.want, profile.ID)
		})
	}
}

func (suite *ProfileServiceTestSuite) TestResolveActiveProfile_NothingToResolve() {
	// Arrange
	principal := testutil.NewPrincipal(suite.accountID)

	// Act
	required, reqErr := suite.service.ResolveActiveProfile(suite.ctx, principal, "", true)
	optional, optErr := suite.service.ResolveActiveProfile(suite.ctx, principal, "", false)

	// Assert
	suite.Nil(required)
	suite.True(errors.HasCode(reqErr, errors.CodeProfileRequired))
	suite.Nil(optional)
	suite.NoError(optErr)
}

func (suite *ProfileServiceTestSuite) TestResolveActiveProfile_ExplicitMisses() {
	// Arrange
	other := testutil.NewAccountID()
	strangerOwner, err := suite.service.Signup(suite.ctx, other, "Stranger")
	suite.Require().NoError(err)

	kid := suite.createProfile("Kid", true)
	suite.Require().NoError(suite.service.DeleteProfile(suite.ctx, suite.accountID, kid.ID))

	principal := testutil.NewPrincipal(suite.accountID)

	tests := []struct {
		name     string
		explicit string
		code     errors.Code
	}{
		{"other account", strangerOwner.ID.String(), errors.CodeProfileNotFound},
		{"missing", uuid.NewString(), errors.CodeProfileNotFound},
		{"deleted", kid.ID.String(), errors.CodeProfileNotFound},
		{"bad format", "../etc", errors.CodeInvalidProfileIDFormat},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			// Act
			profile, err := suite.service.ResolveActiveProfile(suite.ctx, principal, tt.explicit, false)

			// Assert
			suite.Nil(profile)
			suite.True(errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func (suite *ProfileServiceTestSuite) TestResolveActiveProfile_NilPrincipal() {
	_, err := suite.service.ResolveActiveProfile(suite.ctx, nil, "", false)
	suite.True(errors.HasCode(err, errors.CodeInvalidToken))
}

func (suite *ProfileServiceTestSuite) TestSetDefaultProfile_OtherAccount() {
	// Arrange
	other := testutil.NewAccountID()
	stranger, err := suite.service.Signup(suite.ctx, other, "Stranger")
	suite.Require().NoError(err)

	// Act
	err = suite.service.SetDefaultProfile(suite.ctx, suite.accountID, stranger.ID)

	// Assert
	suite.True(errors.HasCode(err, errors.CodeProfileNotFound))
}

func (suite *ProfileServiceTestSuite) TestAvatarUploadURL() {
	// Arrange
	expires := testutil.FixedNow.Add(15 * time.Minute)
	key := "avatars/" + suite.accountID + "/" + suite.owner.ID.String()
	suite.avatars.On("PresignAvatarUpload", suite.ctx, key, "image/png").
		Return("https://uploads.example.com/signed", expires, nil)

	// Act
	upload, err := suite.service.AvatarUploadURL(suite.ctx, suite.accountID, suite.owner.ID, "image/png")

	// Assert
	suite.Require().NoError(err)
	suite.Equal("https://uploads.example.com/signed", upload.URL)
	suite.Equal(key, upload.Key)
	suite.Equal(expires, upload.ExpiresAt)

	stored, err := suite.service.GetProfile(suite.ctx, suite.accountID, suite.owner.ID)
	suite.Require().NoError(err)
	suite.Equal(key, stored.AvatarKey)
}

func (suite *ProfileServiceTestSuite) TestAvatarUploadURL_NotConfigured() {
	// Arrange
	svc := service.NewProfileService(suite.repo, nil, nil, logger.NewNoopLogger())

	// Act
	_, err := svc.AvatarUploadURL(suite.ctx, suite.accountID, suite.owner.ID, "image/png")

	// Assert
	suite.True(errors.IsInternal(err))
}

func (suite *ProfileServiceTestSuite) TestWithMaxProfiles() {
	// Arrange
	svc := service.NewProfileService(suite.repo, nil, nil, logger.NewNoopLogger()).WithMaxProfiles(2)
	_, err := svc.CreateProfile(suite.ctx, suite.accountID, service.CreateInput{Name: "Second"})
	suite.Require().NoError(err)

	// Act
	_, err = svc.CreateProfile(suite.ctx, suite.accountID, service.CreateInput{Name: "Third"})

	// Assert
	suite.True(errors.HasCode(err, errors.CodeProfileLimitExceeded))
}

func TestProfileServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProfileServiceTestSuite))
}
