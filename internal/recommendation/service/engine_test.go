package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/narwhalmedia/ottcore/internal/access"
	catalog "github.com/narwhalmedia/ottcore/internal/catalog/domain"
	catalogrepo "github.com/narwhalmedia/ottcore/internal/catalog/repository"
	"github.com/narwhalmedia/ottcore/internal/recommendation/service"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/logger"
	"github.com/narwhalmedia/ottcore/test/testutil"
)

type mockContentRepository struct {
	mock.Mock
}

func (m *mockContentRepository) FindActiveContent(ctx context.Context, q catalogrepo.Query) ([]*catalog.Content, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Content), args.Error(1)
}

func (m *mockContentRepository) CountActiveContent(ctx context.Context, q catalogrepo.Query) (int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockContentRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Content), args.Error(1)
}

func (m *mockContentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Content, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]*catalog.Content), args.Error(1)
}

func (m *mockContentRepository) FindEpisode(ctx context.Context, contentID, episodeID uuid.UUID) (*catalog.Episode, error) {
	args := m.Called(ctx, contentID, episodeID)
	return args.Get(0).(*catalog.Episode), args.Error(1)
}

func (m *mockContentRepository) ListEpisodes(ctx context.Context, contentID uuid.UUID) ([]*catalog.Episode, error) {
	args := m.Called(ctx, contentID)
	return args.Get(0).([]*catalog.Episode), args.Error(1)
}

func (m *mockContentRepository) CreateContent(ctx context.Context, c *catalog.Content) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockContentRepository) CreateSeason(ctx context.Context, s *catalog.Season) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockContentRepository) CreateEpisode(ctx context.Context, e *catalog.Episode) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockContentRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type EngineTestSuite struct {
	suite.Suite

	ctx      context.Context
	contents catalogrepo.ContentRepository
	engine   *service.Engine
	adult    *access.Viewer
	child    *access.Viewer
}

func (suite *EngineTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.contents = catalogrepo.NewGormRepository(testutil.NewTestDB(suite.T()))
	suite.engine = suite.newEngine(42)

	accountID := testutil.NewAccountID()
	suite.adult = &access.Viewer{AccountID: accountID, Profile: testutil.NewAdultProfile(accountID), Country: "US"}
	suite.child = &access.Viewer{
		AccountID: accountID,
		Profile:   testutil.NewChildProfile(accountID, 12),
		Country:   "US",
		Filter:    catalog.DefaultChildPolicy().DeriveFilter(true, 12),
	}
}

func (suite *EngineTestSuite) newEngine(seed int64) *service.Engine {
	return service.NewEngine(suite.contents, service.NewRandShuffler(seed), logger.NewNoopLogger()).
		WithClock(func() time.Time { return testutil.FixedNow })
}

func titles(items []*catalog.Content) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Title
	}
	return out
}

func (suite *EngineTestSuite) TestTrending_WindowAndOrder() {
	// Arrange
	testutil.SeedContent(suite.T(), suite.contents,
		testutil.NewMovie("Fresh Hit", testutil.WithStats(500, 3.0), testutil.CreatedAgo(2*24*time.Hour)),
		testutil.NewMovie("Fresh Tie High", testutil.WithStats(200, 4.5), testutil.CreatedAgo(5*24*time.Hour)),
		testutil.NewMovie("Fresh Tie Low", testutil.WithStats(200, 2.0), testutil.CreatedAgo(5*24*time.Hour)),
		testutil.NewMovie("Old Blockbuster", testutil.WithStats(9000, 5.0), testutil.CreatedAgo(31*24*time.Hour)),
		testutil.NewMovie("Fresh Restricted", testutil.WithStats(800, 4.0), testutil.RestrictedIn("US")),
	)

	// Act
	result, err := suite.engine.Trending(suite.ctx, suite.adult, 0)

	// Assert
	suite.Require().NoError(err)
	suite.Equal(service.KindTrending, result.Kind)
	suite.Equal([]string{"Fresh Hit", "Fresh Tie High", "Fresh Tie Low"}, titles(result.Items))
	suite.False(result.Filters.ChildFilterApplied)
	suite.Equal("US", result.Filters.Country)
	suite.Nil(result.Filters.MaturityTier)
}

func (suite *EngineTestSuite) TestTrending_CustomWindow() {
	// Arrange
	testutil.SeedContent(suite.T(), suite.contents,
		testutil.NewMovie("Today", testutil.CreatedAgo(time.Hour)),
		testutil.NewMovie("Last Week", testutil.CreatedAgo(7*24*time.Hour)),
	)
	engine := suite.newEngine(1).WithTrendingWindow(48 * time.Hour)

	// Act
	result, err := engine.Trending(suite.ctx, suite.adult, 10)

	// Assert
	suite.Require().NoError(err)
	suite.Equal([]string{"Today"}, titles(result.Items))
}

func (suite *EngineTestSuite) TestPopular_GenreAndRatingOrder() {
	// Arrange
	testutil.SeedContent(suite.T(), suite.contents,
		testutil.NewMovie("Good Comedy", testutil.WithGenres("Comedy"), testutil.WithStats(10, 4.0)),
		testutil.NewMovie("Great Comedy", testutil.WithGenres("Comedy", "Family"), testutil.WithStats(5, 4.8)),
		testutil.NewMovie("Tied Comedy More Views", testutil.WithGenres("Comedy"), testutil.WithStats(50, 4.0)),
		testutil.NewMovie("Drama", testutil.WithGenres("Drama"), testutil.WithStats(1000, 5.0)),
	)

	// Act
	comedy, err := suite.engine.Popular(suite.ctx, suite.adult, "Comedy", 10)
	suite.Require().NoError(err)
	lowercase, err := suite.engine.Popular(suite.ctx, suite.adult, "comedy", 10)
	suite.Require().NoError(err)
	all, err := suite.engine.Popular(suite.ctx, suite.adult, "", 2)
	suite.Require().NoError(err)

	// Assert
	suite.Equal([]string{"Great Comedy", "Tied Comedy More Views", "Good Comedy"}, titles(comedy.Items))
	suite.Empty(lowercase.Items)
	suite.Equal([]string{"Drama", "Great Comedy"}, titles(all.Items))
}

func (suite *EngineTestSuite) TestPopular_ChildFilter() {
	// Arrange
	testutil.SeedContent(suite.T(), suite.contents,
		testutil.NewMovie("Cartoon", testutil.WithGenres("Animation"), testutil.WithStats(10, 3.0)),
		testutil.NewMovie("Slasher", testutil.WithGenres("Horror"), testutil.WithRating(catalog.RatingR), testutil.WithStats(10, 5.0)),
		testutil.NewMovie("Mature Comedy", testutil.WithGenres("Comedy"), testutil.WithRating(catalog.RatingR), testutil.WithStats(10, 4.5)),
		testutil.NewMovie("Family Horror", testutil.WithGenres("Family", "Horror"), testutil.WithStats(10, 4.0)),
	)

	// Act
	result, err := suite.engine.Popular(suite.ctx, suite.child, "", 10)

	// Assert
	suite.Require().NoError(err)
	suite.Equal([]string{"Cartoon"}, titles(result.Items))
	suite.True(result.Filters.ChildFilterApplied)
	suite.Require().NotNil(result.Filters.MaturityTier)
	suite.Equal(18, *result.Filters.MaturityTier)
	for _, c := range result.Items {
		suite.LessOrEqual(c.AgeRating.Rank(), catalog.RatingPG13.Rank())
	}
}

func (suite *EngineTestSuite) TestPersonalized_SubsetOfTopCandidates() {
	// Arrange
	var seeded []*catalog.Content
	for i := 0; i < 10; i++ {
		seeded = append(seeded, testutil.NewMovie("Movie "+string(rune('A'+i)), testutil.WithStats(int64(i), float64(i)/2)))
	}
	testutil.SeedContent(suite.T(), suite.contents, seeded...)

	// Act
	result, err := suite.engine.Personalized(suite.ctx, suite.adult, 3)

	// Assert
	suite.Require().NoError(err)
	suite.Len(result.Items, 3)
	top := map[string]bool{}
	for _, c := range seeded[4:] {
		top[c.Title] = true
	}
	for _, c := range result.Items {
		suite.True(top[c.Title], "%s is outside the top six", c.Title)
	}
}

func (suite *EngineTestSuite) TestPersonalized_DeterministicWithSeed() {
	// Arrange
	for i := 0; i < 12; i++ {
		testutil.SeedContent(suite.T(), suite.contents, testutil.NewMovie("Movie", testutil.WithStats(int64(i), 3.0)))
	}

	// Act
	first, err := suite.newEngine(7).Personalized(suite.ctx, suite.adult, 5)
	suite.Require().NoError(err)
	second, err := suite.newEngine(7).Personalized(suite.ctx, suite.adult, 5)
	suite.Require().NoError(err)

	// Assert
	suite.Require().Len(first.Items, 5)
	for i := range first.Items {
		suite.Equal(first.Items[i].ID, second.Items[i].ID)
	}
}

func (suite *EngineTestSuite) TestPersonalized_RequiresProfile() {
	// Act
	_, err := suite.engine.Personalized(suite.ctx, &access.Viewer{Country: "US"}, 5)

	// Assert
	suite.True(errors.HasCode(err, errors.CodeProfileRequired))
}

func (suite *EngineTestSuite) TestPersonalized_DoublesCandidatePool() {
	// Arrange
	repo := new(mockContentRepository)
	engine := service.NewEngine(repo, service.NewRandShuffler(1), logger.NewNoopLogger())
	repo.On("FindActiveContent", suite.ctx, mock.MatchedBy(func(q catalogrepo.Query) bool {
		return q.Limit == 2*service.MaxLimit && q.Order == catalogrepo.OrderByRating
	})).Return([]*catalog.Content{}, nil)

	// Act
	result, err := engine.Personalized(suite.ctx, suite.adult, 1000)

	// Assert
	suite.Require().NoError(err)
	suite.Empty(result.Items)
	repo.AssertExpectations(suite.T())
}

func (suite *EngineTestSuite) TestSimilar() {
	// Arrange
	ref := testutil.NewMovie("Reference", testutil.WithGenres("Comedy", "Drama"), testutil.WithStats(10, 4.0))
	series := testutil.NewMovie("Comedy Series", testutil.WithGenres("Comedy"), testutil.AsSeries(), testutil.WithStats(10, 5.0))
	testutil.SeedContent(suite.T(), suite.contents,
		ref,
		series,
		testutil.NewMovie("Drama Match", testutil.WithGenres("Drama"), testutil.WithStats(10, 3.0)),
		testutil.NewMovie("Comedy Match", testutil.WithGenres("Comedy", "Family"), testutil.WithStats(10, 4.5)),
		testutil.NewMovie("Unrelated", testutil.WithGenres("Horror"), testutil.WithStats(10, 5.0)),
	)

	// Act
	result, err := suite.engine.Similar(suite.ctx, suite.adult, ref.ID, 10)

	// Assert
	suite.Require().NoError(err)
	suite.Equal(service.KindSimilar, result.Kind)
	suite.Equal([]string{"Comedy Match", "Drama Match"}, titles(result.Items))
}

func (suite *EngineTestSuite) TestSimilar_HiddenReference() {
	// Arrange
	blocked := testutil.NewMovie("Blocked", testutil.RestrictedIn("US"))
	mature := testutil.NewMovie("Mature", testutil.WithGenres("Drama"), testutil.WithRating(catalog.RatingR))
	withdrawn := testutil.NewMovie("Withdrawn", testutil.Inactive())
	testutil.SeedContent(suite.T(), suite.contents, blocked, mature, withdrawn)

	tests := []struct {
		name   string
		viewer *access.Viewer
		id     uuid.UUID
	}{
		{"geo restricted", suite.adult, blocked.ID},
		{"child filtered", suite.child, mature.ID},
		{"inactive", suite.adult, withdrawn.ID},
		{"missing", suite.adult, uuid.New()},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			// Act
			result, err := suite.engine.Similar(suite.ctx, tt.viewer, tt.id, 10)

			// Assert
			suite.Nil(result)
			suite.True(errors.HasCode(err, errors.CodeContentNotFound), "got %v", err)
		})
	}
}

func (suite *EngineTestSuite) TestSimilar_ReferenceWithoutGenres() {
	// Arrange
	bare := testutil.NewMovie("Bare", testutil.WithGenres())
	testutil.SeedContent(suite.T(), suite.contents, bare, testutil.NewMovie("Other"))

	// Act
	result, err := suite.engine.Similar(suite.ctx, suite.adult, bare.ID, 10)

	// Assert
	suite.Require().NoError(err)
	suite.NotNil(result.Items)
	suite.Empty(result.Items)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
