package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// clockSkew is how far token times may drift from ours.
const clockSkew = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

// Claims is the body of an access token. The actor id travels in sub.
type Claims struct {
	Role     enums.ActorRole `json:"role"`
	VendorID *uuid.UUID      `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims pass; it lets the parser reject
// tokens whose actor could never be built.
func (c Claims) Validate() error {
	if !c.Role.IsValid() {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	if c.Role == enums.ActorRoleVendor && c.VendorID == nil {
		return errors.New("vendor token without vendor_id")
	}
	if _, err := uuid.Parse(c.Subject); err != nil {
		return fmt.Errorf("subject is not an actor id: %w", err)
	}
	return nil
}

func (c Claims) actor() Actor {
	return Actor{ID: uuid.MustParse(c.Subject), Role: c.Role, VendorID: c.VendorID}
}

// Signer mints and verifies HS256 access tokens for one issuer.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
}

func NewSigner(cfg config.JWTConfig) *Signer {
	return &Signer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.ExpirationMinutes) * time.Minute,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

func (s *Signer) ready() error {
	switch {
	case len(s.secret) == 0:
		return errors.New("jwt secret is not configured")
	case s.issuer == "":
		return errors.New("jwt issuer is not configured")
	}
	return nil
}

// Mint issues a token for actor valid from now for the configured lifetime.
func (s *Signer) Mint(actor Actor, now time.Time) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if s.ttl <= 0 {
		return "", errors.New("jwt lifetime must be positive")
	}
	claims := Claims{
		Role:     actor.Role,
		VendorID: actor.VendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	if err := claims.Validate(); err != nil {
		return "", err
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and lifetime and returns the actor.
func (s *Signer) Verify(token string) (Actor, error) {
	if err := s.ready(); err != nil {
		return Actor{}, err
	}
	var claims Claims
	if _, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return Actor{}, err
	}
	return claims.actor(), nil
}
