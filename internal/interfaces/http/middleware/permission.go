package middleware

import (
	"net/http"

	"github.com/erp/tempcredit/internal/infrastructure/auth"
	"github.com/erp/tempcredit/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Authorizer *auth.Authorizer
	Logger     *zap.Logger
}

// RequireRoutePermission checks the caller's roles against the route
// policy. It must run after JWTAuthMiddleware.
func RequireRoutePermission(cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handlePermissionDenied(c, cfg, "No authentication claims found")
			return
		}

		allowed, err := cfg.Authorizer.Allowed(claims.Roles, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("Permission check failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInternal, "Permission check failed", GetRequestID(c)))
			return
		}
		if !allowed {
			handlePermissionDenied(c, cfg, "User lacks a role for this route")
			return
		}

		c.Next()
	}
}

// RequireRole allows the request when the caller holds any of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims != nil {
			for _, role := range roles {
				if claims.HasRole(role) {
					c.Next()
					return
				}
			}
		}
		handlePermissionDenied(c, PermissionConfig{}, "User lacks required role")
	}
}

// handlePermissionDenied aborts with 403
func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, reason string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Permission denied",
			zap.String("user_id", GetJWTUserID(c)),
			zap.Strings("roles", GetJWTRoles(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("reason", reason),
		)
	}
	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden, "You do not have permission to perform this action", GetRequestID(c)))
}
