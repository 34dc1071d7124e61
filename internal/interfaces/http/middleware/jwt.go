package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/auth"
	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	CallerKey     = "caller"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/health",
		},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig authenticates the bearer token and stores the
// resulting shared.Caller on the gin context.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		caller, claims, err := cfg.JWTService.Authenticate(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(CallerKey, caller)
		c.Set(logger.GinUserIDKey, claims.UserID)
		c.Set(logger.GinTeamIDKey, claims.TenantID)

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, log = logger.WithUserID(ctx, log, claims.UserID)
		ctx, _ = logger.WithTeamID(ctx, log, claims.TenantID)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("user_id", claims.UserID),
				zap.String("team_id", claims.TenantID),
				zap.Int("teams", len(caller.TeamIDs)),
			)
		}

		c.Next()
	}
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code := shared.CodeUnauthorized
	text := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.CodeTokenExpired
		text = "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		text = "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidTokenType):
		text = "Invalid token type"
	case errors.Is(err, auth.ErrMissingTenantID), errors.Is(err, auth.ErrMissingUserID), errors.Is(err, auth.ErrInvalidClaims):
		text = "Invalid token claims"
	case errors.Is(err, auth.ErrInvalidToken):
		text = "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, text, c.GetString(logger.GinRequestIDKey)))
}

// GetCaller retrieves the authenticated caller from gin.Context
func GetCaller(c *gin.Context) (shared.Caller, bool) {
	if v, exists := c.Get(CallerKey); exists {
		if caller, ok := v.(shared.Caller); ok {
			return caller, true
		}
	}
	return shared.Caller{}, false
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the user ID from JWT claims in context
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(logger.GinUserIDKey)
}

// GetJWTTenantID retrieves the home team ID from JWT claims in context
func GetJWTTenantID(c *gin.Context) string {
	return c.GetString(logger.GinTeamIDKey)
}
