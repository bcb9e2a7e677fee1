package taxonomy

import (
	"github.com/listenupapp/taxonomy-server/internal/domain"
)

// FlattenAncestors renders term and each of its ancestors as a flat record,
// the term first and the root last.
//
// The parent chain must already be loaded (see GetTermWithAncestors in the store);
// nothing is fetched here. Each record starts with a copy of the term's extra data,
// then slug, the display level (stored level + 1), obsoleted_by when the term is
// superseded, and links.self.
func FlattenAncestors(term *domain.Term, links LinkBuilder) []*Record {
	if term == nil {
		return nil
	}

	records := make([]*Record, 0, term.Level+1)
	for cur := term; cur != nil; cur = cur.Parent {
		rec := domain.CopyExtraData(cur.ExtraData)
		rec.Set("slug", cur.Slug)
		rec.Set("level", cur.Level+1)
		if cur.ObsoletedBy != nil {
			rec.Set("obsoleted_by", cur.ObsoletedBy.Slug)
		}

		self := newRecord()
		self.Set("self", links.Self(cur.Slug))
		rec.Set("links", self)

		records = append(records, rec)
	}
	return records
}
