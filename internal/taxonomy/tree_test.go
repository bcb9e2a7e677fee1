package taxonomy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/taxonomy-server/internal/domain"
	"github.com/listenupapp/taxonomy-server/internal/prefer"
)

func row(slug string, level int, kv ...any) *domain.Term {
	return &domain.Term{
		Syncable:  domain.Syncable{ID: "term-" + slug},
		Slug:      slug,
		Level:     level,
		Status:    domain.TermAlive,
		ExtraData: domain.ExtraDataFromPairs(kv...),
	}
}

func TestRenderTree_Nesting(t *testing.T) {
	rows := []*domain.Term{
		row("europe", 0),
		row("europe/cz", 1),
		row("europe/cz/prague", 2),
		row("europe/sk", 1),
		row("orphan/child", 1),
	}
	rep := prefer.Representation{Include: prefer.IncludeSlug}

	tree := RenderTree(rows, rep, testLinks)

	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"slug":"europe","children":[
			{"slug":"europe/cz","children":[{"slug":"europe/cz/prague"}]},
			{"slug":"europe/sk"}
		]},
		{"slug":"orphan/child"}
	]`, string(out))
}

func TestRenderTree_FieldsFollowRepresentation(t *testing.T) {
	count, busy := 4, 2
	term := row("europe", 0, "title", "Europe")
	term.DescendantsCount = &count
	term.DescendantsBusyCount = &busy
	term.BusyCount = 1
	term.ObsoletedBy = &domain.Term{Slug: "world/europe"}

	all := prefer.Representation{Include: prefer.IncludeID | prefer.IncludeSlug | prefer.IncludeLevel |
		prefer.IncludeData | prefer.IncludeStatus | prefer.IncludeDescendantsCount |
		prefer.IncludeURL | prefer.IncludeDescendantsURL}

	node := RenderTree([]*domain.Term{term}, all, testLinks)[0]
	out, err := json.Marshal(node)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title":"Europe",
		"id":"term-europe",
		"slug":"europe",
		"level":1,
		"status":"alive",
		"busy_count":1,
		"descendants_busy_count":2,
		"descendants_count":4,
		"obsoleted_by":"world/europe",
		"links":{
			"self":"https://example.org/api/v1/taxonomies/letters/terms/europe",
			"tree":"https://example.org/api/v1/taxonomies/letters/terms/europe?include=dsc"
		}
	}`, string(out))

	minimal := RenderTree([]*domain.Term{term}, all.Without(prefer.IncludeData|prefer.IncludeStatus|prefer.IncludeURL|prefer.IncludeDescendantsURL), testLinks)[0]
	_, hasTitle := minimal.Get("title")
	_, hasStatus := minimal.Get("status")
	_, hasLinks := minimal.Get("links")
	assert.False(t, hasTitle)
	assert.False(t, hasStatus)
	assert.False(t, hasLinks)
}

func TestRenderTree_Empty(t *testing.T) {
	out, err := json.Marshal(RenderTree(nil, prefer.Representation{}, testLinks))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}
