package domain

import (
	"strings"
)

// TermStatus is the lifecycle state of a taxonomy term.
type TermStatus string

// Term lifecycle states.
const (
	TermAlive         TermStatus = "alive"
	TermDeletePending TermStatus = "delete_pending"
	TermDeleted       TermStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s TermStatus) Valid() bool {
	switch s {
	case TermAlive, TermDeletePending, TermDeleted:
		return true
	}
	return false
}

// Term is a node in a taxonomy tree.
// Terms form a hierarchy addressed by slug path: "europe" -> "europe/cz" -> "europe/cz/prague".
type Term struct {
	Syncable
	TaxonomyID    string     `json:"taxonomy_id"`
	TaxonomyCode  string     `json:"taxonomy_code"`
	Slug          string     `json:"slug"`                     // Full path: "europe/cz/prague"
	Level         int        `json:"level"`                    // 0=root, 1=child, 2=grandchild
	ParentID      string     `json:"parent_id,omitempty"`      // Empty for roots
	ObsoletedByID string     `json:"obsoleted_by_id,omitempty"` // Term that supersedes this one
	Status        TermStatus `json:"status"`
	BusyCount     int        `json:"busy_count"` // External references to this term
	ExtraData     *ExtraData `json:"extra_data,omitempty"`

	// Parent and ObsoletedBy are only populated when the store loads an ancestor chain.
	Parent      *Term `json:"-"`
	ObsoletedBy *Term `json:"-"`

	// Aggregates, nil unless the query asked for them.
	DescendantsCount     *int `json:"descendants_count,omitempty"`
	DescendantsBusyCount *int `json:"descendants_busy_count,omitempty"`
}

// IsRoot returns true if this term has no parent.
func (t *Term) IsRoot() bool {
	return t.ParentID == ""
}

// LocalSlug returns the last path segment of the slug.
func (t *Term) LocalSlug() string {
	if i := strings.LastIndexByte(t.Slug, '/'); i >= 0 {
		return t.Slug[i+1:]
	}
	return t.Slug
}

// ParentSlug returns the slug of the parent term derived from the path, or "" for roots.
func (t *Term) ParentSlug() string {
	return ParentSlug(t.Slug)
}

// BuildSlug joins a parent slug and a local slug.
func BuildSlug(parentSlug, local string) string {
	if parentSlug == "" {
		return local
	}
	return parentSlug + "/" + local
}

// ParentSlug returns the parent path of slug, or "" when slug is a root.
func ParentSlug(slug string) string {
	if i := strings.LastIndexByte(slug, '/'); i >= 0 {
		return slug[:i]
	}
	return ""
}

// AncestorSlugs returns slug and every prefix of it, root first.
// "a/b/c" -> ["a", "a/b", "a/b/c"].
func AncestorSlugs(slug string) []string {
	if slug == "" {
		return nil
	}
	parts := strings.Split(slug, "/")
	slugs := make([]string, len(parts))
	for i := range parts {
		slugs[i] = strings.Join(parts[:i+1], "/")
	}
	return slugs
}
