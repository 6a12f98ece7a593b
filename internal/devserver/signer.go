package devserver

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ccai-examples/ccai-demo/pkg/wire"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "ccai-devserver"
	tokenTTL    = 24 * time.Hour
	// endUserPrefix marks participant ids of end users.
	endUserPrefix = "end_user_"
)

// EndUserClaims is the payload of an end-user token.
type EndUserClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies end-user tokens.
type Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	now        func() time.Time
}

// NewSigner derives the signing key from secret.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	seed := sha256.Sum256([]byte(secret))
	privateKey := ed25519.NewKeyFromSeed(seed[:])
	return &Signer{
		privateKey: privateKey,
		publicKey:  privateKey.Public().(ed25519.PublicKey),
		now:        time.Now,
	}, nil
}

// EndUserID returns the participant id for an identity.
func EndUserID(identifier string) string {
	return endUserPrefix + strings.TrimSpace(identifier)
}

// Sign creates a token for the identity in req.
func (s *Signer) Sign(req wire.AuthRequest) (string, error) {
	if strings.TrimSpace(req.Identifier) == "" {
		return "", errors.New("identifier is required")
	}
	now := s.now()
	claims := EndUserClaims{
		Name:  req.Name,
		Email: req.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   EndUserID(req.Identifier),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// Verify parses token and returns its claims.
func (s *Signer) Verify(token string) (*EndUserClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &EndUserClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*EndUserClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
