package prefer

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	flags, err := ParseFlags("url, self  dsc")
	require.NoError(t, err)

	assert.True(t, flags.Has(IncludeURL))
	assert.True(t, flags.Has(IncludeSelf))
	assert.True(t, flags.Has(IncludeDescendants))
	assert.False(t, flags.Has(IncludeDeleted))
	assert.Equal(t, "url dsc self", flags.String())
}

func TestParseFlags_Unknown(t *testing.T) {
	_, err := ParseFlags("url bogus")
	assert.Error(t, err)
}

func TestFlags_HasZero(t *testing.T) {
	var flags Flags = IncludeURL
	assert.False(t, flags.Has(0))
}

func TestRepresentation_Contains(t *testing.T) {
	rep := Representation{
		Include: IncludeURL | IncludeSelf,
		Exclude: IncludeSelf,
	}
	assert.True(t, rep.Contains(IncludeURL))
	assert.False(t, rep.Contains(IncludeSelf), "excluded flag must not be contained")
	assert.False(t, rep.Contains(IncludeData))
}

func TestMerge_ExplicitWins(t *testing.T) {
	request := Representation{
		Include: IncludeDescendants,
		Exclude: IncludeURL,
		Options: Options{Levels: Levels(1)},
	}
	defaults := Representation{
		Include: IncludeURL | IncludeSelf | IncludeData,
		Exclude: IncludeDescendants,
		Options: Options{Levels: Levels(5)},
	}

	merged := request.Merge(defaults)

	assert.True(t, merged.Contains(IncludeDescendants), "request include beats default exclude")
	assert.False(t, merged.Contains(IncludeURL), "request exclude beats default include")
	assert.True(t, merged.Contains(IncludeSelf))
	assert.True(t, merged.Contains(IncludeData))
	require.NotNil(t, merged.Options.Levels)
	assert.Equal(t, 1, *merged.Options.Levels)
}

func TestMerge_DefaultLevels(t *testing.T) {
	merged := Representation{}.Merge(Representation{Options: Options{Levels: Levels(3)}})
	require.NotNil(t, merged.Options.Levels)
	assert.Equal(t, 3, *merged.Options.Levels)
}

func TestMerge_Idempotent(t *testing.T) {
	request := Representation{Include: IncludeDescendants, Exclude: IncludeData}
	defaults := Representation{
		Include: IncludeURL | IncludeData | IncludeSelf,
		Exclude: IncludeDeleted,
		Options: Options{Levels: Levels(2)},
	}

	once := request.Merge(defaults)
	twice := once.Merge(defaults)

	assert.Equal(t, once.Include, twice.Include)
	assert.Equal(t, once.Exclude, twice.Exclude)
	assert.Equal(t, *once.Options.Levels, *twice.Options.Levels)
}

func TestMerge_Associative(t *testing.T) {
	a := Representation{Include: IncludeDescendants, Exclude: IncludeURL}
	b := Representation{Include: IncludeURL | IncludeStatus, Exclude: IncludeSelf}
	c := Representation{Include: IncludeSelf | IncludeData, Exclude: IncludeStatus | IncludeDescendants}

	left := a.Merge(b).Merge(c)
	right := a.Merge(b.Merge(c))

	assert.Equal(t, left.Include, right.Include)
	assert.Equal(t, left.Exclude, right.Exclude)
}

func TestWithWithout(t *testing.T) {
	rep := Representation{}.With(IncludeDeleted)
	assert.True(t, rep.Contains(IncludeDeleted))

	rep = rep.Without(IncludeDeleted)
	assert.False(t, rep.Contains(IncludeDeleted))
	assert.True(t, rep.Exclude.Has(IncludeDeleted))
}

func TestParseHeader(t *testing.T) {
	rep, err := ParseHeader(`return=representation; include="url self dsc"; exclude=data; levels=2`)
	require.NoError(t, err)

	assert.True(t, rep.Contains(IncludeURL))
	assert.True(t, rep.Contains(IncludeSelf))
	assert.True(t, rep.Contains(IncludeDescendants))
	assert.True(t, rep.Exclude.Has(IncludeData))
	require.NotNil(t, rep.Options.Levels)
	assert.Equal(t, 2, *rep.Options.Levels)
}

func TestParseHeader_MultipleValues(t *testing.T) {
	rep, err := ParseHeader("include=url", "respond-async, include=del")
	require.NoError(t, err)

	assert.True(t, rep.Contains(IncludeURL))
	assert.True(t, rep.Contains(IncludeDeleted))
}

func TestParseHeader_BadLevels(t *testing.T) {
	_, err := ParseHeader("levels=-1")
	assert.Error(t, err)

	_, err = ParseHeader("levels=deep")
	assert.Error(t, err)
}

func TestParseRequest_QueryOverridesHeader(t *testing.T) {
	q := url.Values{}
	q.Set("exclude", "url")
	q.Set("levels", "4")

	rep, err := ParseRequest([]string{"include=url self; levels=1"}, q)
	require.NoError(t, err)

	assert.False(t, rep.Contains(IncludeURL))
	assert.True(t, rep.Contains(IncludeSelf))
	assert.Equal(t, 4, *rep.Options.Levels)
}
