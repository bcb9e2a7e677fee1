package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/taxonomy-server/internal/prefer"
)

func TestTerm_Slugs(t *testing.T) {
	term := &Term{Slug: "europe/cz/prague"}

	assert.Equal(t, "prague", term.LocalSlug())
	assert.Equal(t, "europe/cz", term.ParentSlug())
	assert.Equal(t, "", ParentSlug("europe"))
	assert.Equal(t, "europe/cz", BuildSlug("europe", "cz"))
	assert.Equal(t, "europe", BuildSlug("", "europe"))
}

func TestAncestorSlugs(t *testing.T) {
	assert.Equal(t, []string{"a", "a/b", "a/b/c"}, AncestorSlugs("a/b/c"))
	assert.Nil(t, AncestorSlugs(""))
}

func TestTermStatus_Valid(t *testing.T) {
	assert.True(t, TermAlive.Valid())
	assert.True(t, TermDeletePending.Valid())
	assert.True(t, TermDeleted.Valid())
	assert.False(t, TermStatus("zombie").Valid())
}

func TestExtraData_KeepsOrder(t *testing.T) {
	data, err := ParseExtraData([]byte(`{"zeta":1,"alpha":"a","mid":true}`))
	require.NoError(t, err)

	out, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"a","mid":true}`, string(out))
}

func TestExtraData_KeepsNestedOrder(t *testing.T) {
	in := `{"title":{"en":"Czechia","cs":"Česko","de":"Tschechien"},` +
		`"tags":[{"z":1,"a":2},"x",null],"empty":{}}`
	data, err := ParseExtraData([]byte(in))
	require.NoError(t, err)

	title, _ := data.Get("title")
	nested, ok := title.(*ExtraData)
	require.True(t, ok, "nested objects stay ordered, got %T", title)
	assert.Equal(t, "en", nested.Oldest().Key)

	out, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestParseExtraData_Rejects(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"title"`, `{"a":1} {"b":2}`, `{"a":`} {
		_, err := ParseExtraData([]byte(raw))
		assert.Error(t, err, raw)
	}

	data, err := ParseExtraData([]byte("  "))
	require.NoError(t, err)
	assert.Equal(t, 0, data.Len())
}

func TestCopyExtraData_IsShallowCopy(t *testing.T) {
	original := ExtraDataFromPairs("title", "C")
	copied := CopyExtraData(original)
	copied.Set("extra", 1)

	_, present := original.Get("extra")
	assert.False(t, present, "copy must not alias the original")
	assert.Equal(t, 0, CopyExtraData(nil).Len())
}

func TestTaxonomy_MergeSelect(t *testing.T) {
	tax := &Taxonomy{Select: prefer.Representation{
		Include: prefer.IncludeURL | prefer.IncludeSelf,
		Options: prefer.Options{Levels: prefer.Levels(2)},
	}}

	merged := tax.MergeSelect(prefer.Representation{Exclude: prefer.IncludeURL})

	assert.False(t, merged.Contains(prefer.IncludeURL))
	assert.True(t, merged.Contains(prefer.IncludeSelf))
	assert.Equal(t, 2, *merged.Options.Levels)
}
