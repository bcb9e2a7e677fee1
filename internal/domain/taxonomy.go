package domain

import "github.com/listenupapp/taxonomy-server/internal/prefer"

// Taxonomy is a named vocabulary of terms, identified by its code.
type Taxonomy struct {
	Syncable
	Code      string                `json:"code"`          // URL-safe key: "countries"
	URL       string                `json:"url,omitempty"` // Optional external home of the vocabulary
	Public    bool                  `json:"public"`        // Public taxonomies need no read grant
	ExtraData *ExtraData            `json:"extra_data,omitempty"`
	Select    prefer.Representation `json:"select"` // Default representation for this taxonomy
}

// MergeSelect fills the caller's representation with this taxonomy's defaults.
// Anything the caller stated explicitly is kept.
func (t *Taxonomy) MergeSelect(r prefer.Representation) prefer.Representation {
	return r.Merge(t.Select)
}
