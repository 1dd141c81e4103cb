package repository_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/narwhalmedia/ottcore/internal/catalog/domain"
	"github.com/narwhalmedia/ottcore/internal/catalog/repository"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/test/testutil"
)

type GormRepositoryTestSuite struct {
	suite.Suite

	ctx      context.Context
	repo     repository.ContentRepository
	contents []*domain.Content
}

func (suite *GormRepositoryTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.repo = repository.NewGormRepository(testutil.NewTestDB(suite.T()))

	suite.contents = []*domain.Content{
		testutil.NewMovie("Family Global", testutil.WithStats(100, 4.0)),
		testutil.NewMovie("Cartoon GB", testutil.WithGenres("Animation"), testutil.AvailableIn("GB"), testutil.WithStats(50, 4.5)),
		testutil.NewMovie("Comedy PG-13", testutil.WithGenres("Comedy"), testutil.WithRating(domain.RatingPG13), testutil.WithStats(300, 3.0)),
		testutil.NewMovie("Horror R", testutil.WithGenres("Horror"), testutil.WithRating(domain.RatingR), testutil.WithStats(900, 4.9)),
		testutil.NewMovie("Family Horror", testutil.WithGenres("Family", "Horror"), testutil.WithStats(10, 2.0)),
		testutil.NewMovie("Blocked US", testutil.RestrictedIn("US"), testutil.WithStats(70, 3.5)),
		testutil.NewMovie("Nowhere", testutil.AvailableIn(), testutil.WithStats(5, 1.0)),
		testutil.NewMovie("Withdrawn", testutil.Inactive(), testutil.WithStats(1000, 5.0)),
		testutil.NewMovie("Old Drama", testutil.WithGenres("Drama"), testutil.CreatedAgo(90*24*time.Hour), testutil.WithStats(400, 4.2)),
		testutil.NewMovie("Tie A", testutil.WithStats(60, 3.0)),
		testutil.NewMovie("Tie B", testutil.WithStats(60, 3.0)),
	}
	testutil.SeedContent(suite.T(), suite.repo, suite.contents...)
}

func ids(contents []*domain.Content) []uuid.UUID {
	out := make([]uuid.UUID, len(contents))
	for i, c := range contents {
		out[i] = c.ID
	}
	return out
}

func sortedIDs(contents []*domain.Content) []string {
	out := make([]string, len(contents))
	for i, c := range contents {
		out[i] = c.ID.String()
	}
	sort.Strings(out)
	return out
}

func (suite *GormRepositoryTestSuite) TestSpecificationsAgreeWithSQL() {
	childFilter := domain.DefaultChildPolicy().DeriveFilter(true, 12)
	since := testutil.FixedNow.Add(-30 * 24 * time.Hour)

	queries := map[string]repository.Query{
		"active only":     {},
		"geo US":          {Specs: []domain.ContentSpecification{domain.NewGeoSpecification("us")}},
		"geo GB":          {Specs: []domain.ContentSpecification{domain.NewGeoSpecification("GB")}},
		"child filter":    {Specs: []domain.ContentSpecification{domain.NewChildSafetySpecification(childFilter)}},
		"child and geo":   {Specs: []domain.ContentSpecification{domain.NewGeoSpecification("US"), domain.NewChildSafetySpecification(childFilter)}},
		"genre":           {Genre: "Horror"},
		"created after":   {CreatedAfter: &since},
		"shares genres":   {SharesGenresWith: []string{"Comedy", "Drama"}},
		"empty genre set": {SharesGenresWith: []string{}},
		"exclude id":      {ExcludeID: suite.contents[0].ID, Type: domain.ContentTypeMovie},
	}

	for name, q := range queries {
		suite.Run(name, func() {
			// Arrange
			spec := q.Specification()
			var expected []*domain.Content
			for _, c := range suite.contents {
				if spec.IsSatisfiedBy(c) {
					expected = append(expected, c)
				}
			}

			// Act
			found, err := suite.repo.FindActiveContent(suite.ctx, q)
			suite.Require().NoError(err)
			count, err := suite.repo.CountActiveContent(suite.ctx, q)
			suite.Require().NoError(err)

			// Assert
			suite.Equal(sortedIDs(expected), sortedIDs(found))
			suite.EqualValues(len(expected), count)
		})
	}
}

func (suite *GormRepositoryTestSuite) TestFindActiveContent_OrderByViews() {
	// Act
	found, err := suite.repo.FindActiveContent(suite.ctx, repository.Query{Order: repository.OrderByViews, Limit: 4})

	// Assert
	suite.Require().NoError(err)
	suite.Require().Len(found, 4)
	suite.Equal("Horror R", found[0].Title)
	suite.Equal("Old Drama", found[1].Title)
	suite.Equal("Comedy PG-13", found[2].Title)
	suite.Equal("Family Global", found[3].Title)
}

func (suite *GormRepositoryTestSuite) TestFindActiveContent_TiesBreakByID() {
	// Arrange
	tieA, tieB := suite.contents[9], suite.contents[10]
	first, second := tieA.ID, tieB.ID
	if second.String() < first.String() {
		first, second = second, first
	}

	// Act
	found, err := suite.repo.FindActiveContent(suite.ctx, repository.Query{
		Specs: []domain.ContentSpecification{&domain.GenreSpecification{Genres: []string{"Family"}}},
		Order: repository.OrderByRating,
	})

	// Assert
	suite.Require().NoError(err)
	var tied []uuid.UUID
	for _, c := range found {
		if c.ID == tieA.ID || c.ID == tieB.ID {
			tied = append(tied, c.ID)
		}
	}
	suite.Equal([]uuid.UUID{first, second}, tied)
}

func (suite *GormRepositoryTestSuite) TestFindActiveContent_LimitAndOffset() {
	// Act
	page1, err := suite.repo.FindActiveContent(suite.ctx, repository.Query{Order: repository.OrderByViews, Limit: 3})
	suite.Require().NoError(err)
	page2, err := suite.repo.FindActiveContent(suite.ctx, repository.Query{Order: repository.OrderByViews, Limit: 3, Offset: 3})
	suite.Require().NoError(err)

	// Assert
	suite.Len(page1, 3)
	suite.Len(page2, 3)
	suite.NotContains(ids(page2), page1[0].ID)
	suite.NotContains(ids(page2), page1[2].ID)
}

func (suite *GormRepositoryTestSuite) TestFindActiveContent_RoundTripsLists() {
	// Act
	found, err := suite.repo.FindActiveContent(suite.ctx, repository.Query{
		Specs: []domain.ContentSpecification{domain.NewGeoSpecification("GB")},
		Genre: "Animation",
	})

	// Assert
	suite.Require().NoError(err)
	suite.Require().Len(found, 1)
	suite.Equal([]string{"Animation"}, found[0].Genres)
	suite.Equal([]string{"GB"}, found[0].AvailableCountries)
	suite.False(found[0].IsGloballyAvailable)
}

func (suite *GormRepositoryTestSuite) TestFindByID() {
	// Act
	withdrawn, err := suite.repo.FindByID(suite.ctx, suite.contents[7].ID)

	// Assert
	suite.Require().NoError(err)
	suite.False(withdrawn.IsActive)

	_, err = suite.repo.FindByID(suite.ctx, uuid.New())
	suite.True(errors.HasCode(err, errors.CodeContentNotFound))
}

func (suite *GormRepositoryTestSuite) TestFindByIDs() {
	// Act
	found, err := suite.repo.FindByIDs(suite.ctx, []uuid.UUID{suite.contents[0].ID, suite.contents[3].ID, uuid.New()})

	// Assert
	suite.Require().NoError(err)
	suite.Len(found, 2)
	suite.Equal("Horror R", found[suite.contents[3].ID].Title)

	empty, err := suite.repo.FindByIDs(suite.ctx, nil)
	suite.Require().NoError(err)
	suite.Empty(empty)
}

func (suite *GormRepositoryTestSuite) TestEpisodes() {
	// Arrange
	series := testutil.NewMovie("Show", testutil.AsSeries())
	episodes := testutil.SeedSeries(suite.T(), suite.repo, series, 3)

	// Act
	listed, err := suite.repo.ListEpisodes(suite.ctx, series.ID)
	suite.Require().NoError(err)
	found, err := suite.repo.FindEpisode(suite.ctx, series.ID, episodes[1].ID)
	suite.Require().NoError(err)
	_, missErr := suite.repo.FindEpisode(suite.ctx, suite.contents[0].ID, episodes[1].ID)

	// Assert
	suite.Require().Len(listed, 3)
	suite.Equal(1, listed[0].Number)
	suite.Equal(1, listed[0].SeasonNumber)
	suite.Equal(2, found.Number)
	suite.True(errors.HasCode(missErr, errors.CodeContentNotFound))
}

func (suite *GormRepositoryTestSuite) TestCreateContent_Validation() {
	// Arrange
	badType := testutil.NewMovie("Bad")
	badType.Type = "podcast"
	badRating := testutil.NewMovie("Bad")
	badRating.AgeRating = "MA"

	// Act & Assert
	suite.True(errors.IsBadRequest(suite.repo.CreateContent(suite.ctx, badType)))
	suite.True(errors.IsBadRequest(suite.repo.CreateContent(suite.ctx, badRating)))
	suite.True(errors.IsConflict(suite.repo.CreateContent(suite.ctx, suite.contents[0])))
}

func (suite *GormRepositoryTestSuite) TestIncrementViews() {
	// Act
	err := suite.repo.IncrementViews(suite.ctx, suite.contents[0].ID)

	// Assert
	suite.Require().NoError(err)
	found, err := suite.repo.FindByID(suite.ctx, suite.contents[0].ID)
	suite.Require().NoError(err)
	suite.EqualValues(101, found.Views)
	suite.True(errors.HasCode(suite.repo.IncrementViews(suite.ctx, uuid.New()), errors.CodeContentNotFound))
}

func TestGormRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(GormRepositoryTestSuite))
}
