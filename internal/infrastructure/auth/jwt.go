package auth

import (
	"errors"
	"time"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims represents custom JWT claims. TenantID is the caller's primary
// team; TeamIDs lists any further teams the caller may act for.
type Claims struct {
	jwt.RegisteredClaims
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	TeamIDs   []string  `json:"team_ids,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// JWTService verifies access tokens issued by the identity service
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// IssueTokenInput contains input for token generation
type IssueTokenInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Username string
	TeamIDs  []uuid.UUID
	TTL      time.Duration
}

// IssueAccessToken signs an access token. Production tokens come from the
// identity service; this is used by tests and local tooling.
func (s *JWTService) IssueAccessToken(input IssueTokenInput) (string, error) {
	now := time.Now()
	ttl := input.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	teams := make([]string, len(input.TeamIDs))
	for i, id := range input.TeamIDs {
		teams[i] = id.String()
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:  input.TenantID.String(),
		UserID:    input.UserID.String(),
		Username:  input.Username,
		TeamIDs:   teams,
		TokenType: TokenTypeAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateAccessToken validates an access token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if claims.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// Authenticate validates the token and returns the caller it identifies
func (s *JWTService) Authenticate(tokenString string) (shared.Caller, *Claims, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return shared.Caller{}, nil, err
	}
	caller, err := claims.Caller()
	if err != nil {
		return shared.Caller{}, nil, err
	}
	return caller, claims, nil
}

// GetTenantUUID extracts and parses the tenant ID from claims
func (c *Claims) GetTenantUUID() (uuid.UUID, error) {
	return uuid.Parse(c.TenantID)
}

// GetUserUUID extracts and parses the user ID from claims
func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// Caller builds the caller identity. The tenant comes first in TeamIDs.
func (c *Claims) Caller() (shared.Caller, error) {
	userID, err := c.GetUserUUID()
	if err != nil || userID == uuid.Nil {
		return shared.Caller{}, ErrInvalidClaims
	}
	tenantID, err := c.GetTenantUUID()
	if err != nil || tenantID == uuid.Nil {
		return shared.Caller{}, ErrInvalidClaims
	}

	teams := []uuid.UUID{tenantID}
	for _, raw := range c.TeamIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return shared.Caller{}, ErrInvalidClaims
		}
		if id != tenantID {
			teams = append(teams, id)
		}
	}
	return shared.NewCaller(userID, teams...), nil
}

// GetExpiresAtTime returns the token's expiration time as time.Time
func (c *Claims) GetExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}
