package taxonomy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/taxonomy-server/internal/auth"
	"github.com/listenupapp/taxonomy-server/internal/domain"
	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
	"github.com/listenupapp/taxonomy-server/internal/prefer"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

type fakeResolver map[string]*domain.Taxonomy

func (f fakeResolver) GetTaxonomy(_ context.Context, code string) (*domain.Taxonomy, error) {
	if t, ok := f[code]; ok {
		return t, nil
	}
	return nil, store.ErrTaxonomyNotFound
}

// recordingAuthorizer denies everything when deny is set and remembers its inputs.
type recordingAuthorizer struct {
	deny   bool
	called bool
	slug   string
}

func (a *recordingAuthorizer) EnforceReadPermission(_ context.Context, _ *auth.Caller, _ *domain.Taxonomy, slug string) error {
	a.called = true
	a.slug = slug
	if a.deny {
		return domainerrors.Forbidden("denied")
	}
	return nil
}

var serverDefaults = prefer.Representation{
	Include: prefer.IncludeSelf | prefer.IncludeSlug | prefer.IncludeLevel | prefer.IncludeData | prefer.IncludeURL,
}

func newTestShaper(authz Authorizer) *Shaper {
	return NewShaper(fakeResolver{
		"countries": {Code: "countries"},
		"opinionated": {Code: "opinionated", Select: prefer.Representation{
			Include: prefer.IncludeDescendants | prefer.IncludeDeleted,
			Options: prefer.Options{Levels: prefer.Levels(2)},
		}},
	}, authz, serverDefaults, LinkBuilder{Host: "example.org", Prefix: "/api/v1/taxonomies/"})
}

func shape(t *testing.T, s *Shaper, req ShapeRequest) *QueryDescriptor {
	t.Helper()
	d, err := s.Shape(context.Background(), req)
	require.NoError(t, err)
	return d
}

func TestShape_UnknownTaxonomy(t *testing.T) {
	_, err := newTestShaper(&recordingAuthorizer{}).Shape(context.Background(), ShapeRequest{Code: "missing"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestShape_Authorization(t *testing.T) {
	authz := &recordingAuthorizer{deny: true}
	s := newTestShaper(authz)

	_, err := s.Shape(context.Background(), ShapeRequest{Code: "countries", Slug: "europe", Caller: auth.Anonymous()})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	assert.Equal(t, "europe", authz.slug)

	authz.called = false
	shape(t, s, ShapeRequest{Code: "countries", Slug: "europe"})
	assert.False(t, authz.called, "nil caller skips the read check")
}

func TestShape_StatusCondition(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})

	d := shape(t, s, ShapeRequest{Code: "countries", Slug: "a"})
	assert.False(t, d.Query.Status.Admits(domain.TermDeleted))
	assert.True(t, d.Query.Status.Admits(domain.TermAlive))

	d = shape(t, s, ShapeRequest{Code: "countries", Slug: "a", Prefer: prefer.Representation{Include: prefer.IncludeDeleted}})
	assert.True(t, d.Query.Status.AdmitsAll())
}

func TestShape_SelfOnlySuppressesPaging(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})
	page, size := 2, 10

	d := shape(t, s, ShapeRequest{Code: "countries", Slug: "a", Page: &page, Size: &size})

	assert.Equal(t, store.ModeSelf, d.Query.Mode)
	assert.Nil(t, d.Page)
	assert.Nil(t, d.Size)
	assert.False(t, d.AllowEmpty)
	assert.True(t, d.SingleResult)
	assert.False(t, d.HasQuery)
}

func TestShape_Descendants(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})
	page, size := 2, 10

	d := shape(t, s, ShapeRequest{
		Code: "countries", Slug: "a", Page: &page, Size: &size,
		Prefer: prefer.Representation{Include: prefer.IncludeDescendants, Options: prefer.Options{Levels: prefer.Levels(1)}},
	})

	assert.Equal(t, store.ModeDescendantsOrSelf, d.Query.Mode)
	assert.Equal(t, 1, *d.Query.Levels)
	assert.Equal(t, 2, *d.Page)
	assert.Equal(t, 10, *d.Size)
	assert.False(t, d.SingleResult)
	assert.False(t, d.AllowEmpty)
}

func TestShape_AllowEmptyWithoutSelf(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})

	d := shape(t, s, ShapeRequest{
		Code: "countries", Slug: "a",
		Prefer: prefer.Representation{Include: prefer.IncludeDescendants, Exclude: prefer.IncludeSelf},
	})

	assert.True(t, d.AllowEmpty)
	assert.False(t, d.SingleResult)
}

func TestShape_Aggregates(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})

	d := shape(t, s, ShapeRequest{Code: "countries", Slug: "a"})
	assert.False(t, d.Query.WithDescendantsCount)
	assert.False(t, d.Query.WithBusyCount)

	d = shape(t, s, ShapeRequest{Code: "countries", Slug: "a",
		Prefer: prefer.Representation{Include: prefer.IncludeDescendantsCount | prefer.IncludeStatus}})
	assert.True(t, d.Query.WithDescendantsCount)
	assert.True(t, d.Query.WithBusyCount)
}

func TestShape_FreeText(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})

	q := "prague"
	d := shape(t, s, ShapeRequest{Code: "countries", Query: &q})
	assert.True(t, d.HasQuery)
	assert.Equal(t, "prague", d.Query.Text)
	assert.Equal(t, "countries", d.Query.TextScope)

	empty := ""
	d = shape(t, s, ShapeRequest{Code: "countries", Query: &empty})
	assert.True(t, d.HasQuery)
	assert.False(t, d.Query.HasText())
}

func TestShape_PreferencePrecedence(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})

	// The taxonomy asks for descendants, deleted terms and two levels.
	d := shape(t, s, ShapeRequest{Code: "opinionated", Slug: "a"})
	assert.Equal(t, store.ModeDescendantsOrSelf, d.Query.Mode)
	assert.True(t, d.Query.Status.AdmitsAll())
	assert.Equal(t, 2, *d.Query.Levels)
	assert.True(t, d.Representation.Contains(prefer.IncludeSlug), "server default still applies")

	// The caller overrides the taxonomy.
	d = shape(t, s, ShapeRequest{Code: "opinionated", Slug: "a", Prefer: prefer.Representation{
		Exclude: prefer.IncludeDeleted | prefer.IncludeSlug,
		Options: prefer.Options{Levels: prefer.Levels(5)},
	}})
	assert.False(t, d.Query.Status.AdmitsAll())
	assert.Equal(t, 5, *d.Query.Levels)
	assert.False(t, d.Representation.Contains(prefer.IncludeSlug))
}

func TestShape_ExcludeSelfIsPartOfQuery(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})

	d := shape(t, s, ShapeRequest{Code: "countries", Slug: "a",
		Prefer: prefer.Representation{Include: prefer.IncludeDescendants, Exclude: prefer.IncludeSelf}})
	assert.True(t, d.Query.ExcludeSelf)

	d = shape(t, s, ShapeRequest{Code: "countries",
		Prefer: prefer.Representation{Include: prefer.IncludeDescendants, Exclude: prefer.IncludeSelf}})
	assert.False(t, d.Query.ExcludeSelf, "no addressed term to leave out")

	d = shape(t, s, ShapeRequest{Code: "countries", Slug: "a",
		Prefer: prefer.Representation{Include: prefer.IncludeDescendants}})
	assert.False(t, d.Query.ExcludeSelf)

	records := d.Render([]*domain.Term{row("a", 0), row("a/b", 1), row("a/c", 1)})
	require.Len(t, records, 1)
	links, _ := records[0].Get("links")
	self, _ := links.(*Record).Get("self")
	assert.Equal(t, "https://example.org/api/v1/taxonomies/countries/terms/a", self)
}

func TestShape_RootsWithoutSlugAreAList(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})

	d := shape(t, s, ShapeRequest{Code: "countries"})
	assert.Equal(t, store.ModeSelf, d.Query.Mode)
	assert.False(t, d.SingleResult)
	assert.False(t, d.AllowEmpty)
}

func TestShape_MergedPreferencesAreStable(t *testing.T) {
	s := newTestShaper(&recordingAuthorizer{})
	d := shape(t, s, ShapeRequest{Code: "opinionated", Slug: "a"})

	again := d.Representation.Merge(serverDefaults)
	assert.Equal(t, d.Representation.Include, again.Include)
	assert.Equal(t, d.Representation.Exclude, again.Exclude)
}
