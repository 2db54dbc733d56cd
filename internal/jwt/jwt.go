package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the application claims carried by an access token.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// JWT provides methods to generate and validate JWT tokens.
type JWT struct {
	secretKey string        // Secret key for signing tokens
	exp       time.Duration // Token expiration duration
	issuer    string
}

// Opt configures a JWT.
type Opt func(*JWT)

// WithSecretKey sets the HMAC signing key.
func WithSecretKey(key string) Opt {
	return func(j *JWT) { j.secretKey = key }
}

// WithExpiration sets how long issued tokens stay valid.
func WithExpiration(exp time.Duration) Opt {
	return func(j *JWT) { j.exp = exp }
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) Opt {
	return func(j *JWT) { j.issuer = issuer }
}

// New creates a new JWT instance. Tokens expire after 24h unless configured otherwise.
func New(opts ...Opt) *JWT {
	j := &JWT{exp: 24 * time.Hour, issuer: "gw-exchange-engine"}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Generate creates a signed token for userID with the given role.
func (j *JWT) Generate(ctx context.Context, userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.exp)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// GetClaims parses and verifies tokenString.
func (j *JWT) GetClaims(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("user_id not found in token")
	}
	return claims, nil
}

// Validate reports whether tokenString is a valid, unexpired token.
func (j *JWT) Validate(ctx context.Context, tokenString string) error {
	_, err := j.GetClaims(ctx, tokenString)
	return err
}

// GetTokenFromRequest extracts the token string from the Authorization header
func (j *JWT) GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
