package taxonomy

import (
	"github.com/listenupapp/taxonomy-server/internal/domain"
	"github.com/listenupapp/taxonomy-server/internal/prefer"
)

// RenderTree renders rows as a forest. Rows must be ordered so that parents come
// before their children (slug order does this). A row whose parent is part of the
// result is nested under the parent's "children"; every other row is top level.
func RenderTree(rows []*domain.Term, rep prefer.Representation, links LinkBuilder) []*Record {
	nodes := make(map[string]*Record, len(rows))
	children := make(map[string][]*Record)
	top := make([]*Record, 0)

	for _, row := range rows {
		node := renderNode(row, rep, links)
		nodes[row.Slug] = node

		parent := row.ParentSlug()
		if _, ok := nodes[parent]; ok && parent != "" {
			children[parent] = append(children[parent], node)
		} else {
			top = append(top, node)
		}
	}

	for slug, kids := range children {
		nodes[slug].Set("children", kids)
	}
	return top
}

// renderNode renders one term with the fields rep asks for.
func renderNode(t *domain.Term, rep prefer.Representation, links LinkBuilder) *Record {
	var node *Record
	if rep.Contains(prefer.IncludeData) {
		node = domain.CopyExtraData(t.ExtraData)
	} else {
		node = newRecord()
	}

	if rep.Contains(prefer.IncludeID) {
		node.Set("id", t.ID)
	}
	if rep.Contains(prefer.IncludeSlug) {
		node.Set("slug", t.Slug)
	}
	if rep.Contains(prefer.IncludeLevel) {
		node.Set("level", t.Level+1)
	}
	if rep.Contains(prefer.IncludeStatus) {
		node.Set("status", string(t.Status))
		node.Set("busy_count", t.BusyCount)
		if t.DescendantsBusyCount != nil {
			node.Set("descendants_busy_count", *t.DescendantsBusyCount)
		}
	}
	if rep.Contains(prefer.IncludeDescendantsCount) && t.DescendantsCount != nil {
		node.Set("descendants_count", *t.DescendantsCount)
	}
	if t.ObsoletedBy != nil {
		node.Set("obsoleted_by", t.ObsoletedBy.Slug)
	}

	wantSelf := rep.Contains(prefer.IncludeURL)
	wantTree := rep.Contains(prefer.IncludeDescendantsURL)
	if wantSelf || wantTree {
		l := newRecord()
		if wantSelf {
			l.Set("self", links.Self(t.Slug))
		}
		if wantTree {
			l.Set("tree", links.Tree(t.Slug))
		}
		node.Set("links", l)
	}

	return node
}
