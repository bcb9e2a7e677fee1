package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/listenupapp/taxonomy-server/internal/id"
)

const (
	tokenIssuer   = "taxonomy-server"
	tokenAudience = "taxonomy-client"
)

// TokenService handles PASETO token generation and verification.
type TokenService struct {
	symmetricKey  paseto.V4SymmetricKey
	tokenDuration time.Duration
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, tokenDuration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:  symmetricKey,
		tokenDuration: tokenDuration,
	}, nil
}

// Issue creates a v4.local token for subject carrying the given read grants.
func (s *TokenService) Issue(subject string, grants []Grant, admin bool) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(subject)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.tokenDuration))

	tokenID, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	names := make([]string, len(grants))
	for i, g := range grants {
		names[i] = g.String()
	}
	if err := token.Set("grants", names); err != nil {
		return "", fmt.Errorf("set grants claim: %w", err)
	}
	if err := token.Set("admin", admin); err != nil {
		return "", fmt.Errorf("set admin claim: %w", err)
	}

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify checks a token and returns the caller it identifies.
func (s *TokenService) Verify(tokenString string) (*Caller, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims GrantClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	grants, err := ParseGrants(claims.Grants)
	if err != nil {
		return nil, fmt.Errorf("parse grants: %w", err)
	}

	return &Caller{
		Subject: claims.Subject,
		Grants:  grants,
		Admin:   claims.Admin,
	}, nil
}

// TokenDuration returns the configured token lifetime.
func (s *TokenService) TokenDuration() time.Duration {
	return s.tokenDuration
}
