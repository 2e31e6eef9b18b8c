package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	identityapp "github.com/clinicledger/backend/internal/application/identity"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/logger"
	"github.com/clinicledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auth context keys
const (
	PrincipalKey  = "auth_principal"
	UserIDKey     = "auth_user_id"
	TenantIDKey   = "auth_tenant_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Authenticator resolves a bearer credential to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*identityapp.Principal, error)
}

// AuthConfig holds configuration for the auth middleware
type AuthConfig struct {
	Authenticator Authenticator
	// SkipPaths are full paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// Auth accepts either an identity provider JWT or a personal API key in the
// Authorization header. On success the principal is stored on the gin context
// and the request context carries the tenant for logging and query scoping.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		token, ok := BearerToken(c)
		if !ok {
			abortUnauthorized(c, "Missing authorization header")
			return
		}

		principal, err := cfg.Authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				log.Debug("Authentication rejected",
					zap.String("path", c.Request.URL.Path),
					zap.String("reason", domainErr.Message))
				abortUnauthorized(c, domainErr.Message)
				return
			}
			log.Error("Authentication failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "An unexpected error occurred", c.GetString(RequestIDKey)))
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// SetPrincipal stores the authenticated caller on the gin and request contexts.
func SetPrincipal(c *gin.Context, p *identityapp.Principal) {
	c.Set(PrincipalKey, p)
	c.Set(UserIDKey, p.UserID.String())
	c.Set(TenantIDKey, p.TenantID.String())

	ctx := c.Request.Context()
	ctx, _ = logger.WithTenant(ctx, logger.FromContext(ctx), p.TenantID.String(), p.UserID.String())
	c.Request = c.Request.WithContext(ctx)
}

// BearerToken extracts the credential from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

// GetPrincipal returns the authenticated caller, or nil.
func GetPrincipal(c *gin.Context) *identityapp.Principal {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(*identityapp.Principal); ok {
			return p
		}
	}
	return nil
}

// GetTenantUUID returns the caller's organization ID
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	p := GetPrincipal(c)
	if p == nil {
		return uuid.Nil, errors.New("tenant not found in context")
	}
	return p.TenantID, nil
}

// GetUserUUID returns the caller's user ID
func GetUserUUID(c *gin.Context) (uuid.UUID, error) {
	p := GetPrincipal(c)
	if p == nil {
		return uuid.Nil, errors.New("user not found in context")
	}
	return p.UserID, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, c.GetString(RequestIDKey)))
}
