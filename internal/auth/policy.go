package auth

import (
	"context"

	"github.com/listenupapp/taxonomy-server/internal/domain"
	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
)

// Policy decides who may read and change taxonomies.
type Policy struct{}

// NewPolicy creates the grant based read policy.
func NewPolicy() *Policy {
	return &Policy{}
}

// EnforceReadPermission fails with a Forbidden error unless caller may read slug
// in the taxonomy. Public taxonomies are readable by everyone, admins read everything,
// and other callers need a covering grant.
func (p *Policy) EnforceReadPermission(_ context.Context, caller *Caller, taxonomy *domain.Taxonomy, slug string) error {
	if taxonomy.Public {
		return nil
	}
	if caller == nil {
		return domainerrors.Forbiddenf("taxonomy %q is not public", taxonomy.Code)
	}
	if caller.Admin {
		return nil
	}
	for _, g := range caller.Grants {
		if g.Covers(taxonomy.Code, slug) {
			return nil
		}
	}
	if slug == "" {
		return domainerrors.Forbiddenf("no read grant for taxonomy %q", taxonomy.Code)
	}
	return domainerrors.Forbiddenf("no read grant for %q in taxonomy %q", slug, taxonomy.Code)
}

// RequireAdmin fails unless caller is an administrator.
// Anonymous callers get Unauthorized so clients know to authenticate.
func (p *Policy) RequireAdmin(caller *Caller) error {
	if caller == nil || caller.IsAnonymous() {
		return domainerrors.Unauthorized("authentication required")
	}
	if !caller.Admin {
		return domainerrors.Forbidden("admin privileges required")
	}
	return nil
}

// CanList reports whether caller may see that the taxonomy exists: it is public,
// or the caller holds any grant for it, even one limited to a subtree.
func (p *Policy) CanList(caller *Caller, taxonomy *domain.Taxonomy) bool {
	if taxonomy.Public {
		return true
	}
	if caller == nil {
		return false
	}
	if caller.Admin {
		return true
	}
	for _, g := range caller.Grants {
		if g.Code == "*" || g.Code == taxonomy.Code {
			return true
		}
	}
	return false
}
