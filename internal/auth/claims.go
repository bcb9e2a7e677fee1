package auth

import (
	"fmt"
	"strings"
	"time"
)

// GrantClaims represents the claims stored in a PASETO grant token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type GrantClaims struct {
	Grants []string `json:"grants"`
	Admin  bool     `json:"admin"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// Grant allows reading part of a taxonomy.
//
//	"*"                every taxonomy
//	"countries"        the whole countries taxonomy
//	"countries/europe" europe and its descendants
type Grant struct {
	Code   string
	Prefix string
}

// ParseGrant parses the textual grant form.
func ParseGrant(s string) (Grant, error) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return Grant{}, fmt.Errorf("empty grant")
	}
	code, prefix, _ := strings.Cut(s, "/")
	if code == "*" && prefix != "" {
		return Grant{}, fmt.Errorf("wildcard grant %q cannot carry a slug prefix", s)
	}
	return Grant{Code: code, Prefix: prefix}, nil
}

// ParseGrants parses every grant, failing on the first malformed one.
func ParseGrants(list []string) ([]Grant, error) {
	grants := make([]Grant, 0, len(list))
	for _, s := range list {
		g, err := ParseGrant(s)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, nil
}

// String returns the textual form.
func (g Grant) String() string {
	if g.Prefix == "" {
		return g.Code
	}
	return g.Code + "/" + g.Prefix
}

// Covers reports whether the grant allows reading slug in the taxonomy code.
// An empty slug addresses the whole taxonomy and needs an unprefixed grant.
func (g Grant) Covers(code, slug string) bool {
	if g.Code == "*" {
		return true
	}
	if g.Code != code {
		return false
	}
	if g.Prefix == "" {
		return true
	}
	return slug == g.Prefix || strings.HasPrefix(slug, g.Prefix+"/")
}
