package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Per-request verification failures, distinct from ErrKeyNotConfigured.
var (
	ErrTokenExpired = errors.New("jwt: token expired")
	ErrTokenInvalid = errors.New("jwt: token invalid")
)

// Claims is the claim set carried by both token kinds. Subject holds the
// string-encoded user id; CompanyID stays nil until the user creates a
// company.
type Claims struct {
	CompanyID *int64 `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

// Generator issues and verifies RS256 tokens.
type Generator struct {
	keys       *KeyManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewGenerator creates a token generator with the given lifetimes.
func NewGenerator(keys *KeyManager, accessTTL, refreshTTL time.Duration) *Generator {
	return &Generator{keys: keys, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessToken issues an access token for the user, with the company claim
// when one is known.
func (g *Generator) AccessToken(userID int64, companyID *int64) (string, error) {
	return g.sign(userID, companyID, g.accessTTL)
}

// RefreshToken issues a refresh token. It carries no company claim; the
// company is re-resolved on every refresh.
func (g *Generator) RefreshToken(userID int64) (string, error) {
	return g.sign(userID, nil, g.refreshTTL)
}

func (g *Generator) sign(userID int64, companyID *int64, ttl time.Duration) (string, error) {
	key, err := g.keys.Private()
	if err != nil {
		return "", err
	}

	claims := Claims{
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

// Parse verifies signature and expiry and returns the claims. Expired
// tokens fail with ErrTokenExpired, everything else with ErrTokenInvalid.
func (g *Generator) Parse(tokenStr string) (*Claims, error) {
	key, err := g.keys.Public()
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
