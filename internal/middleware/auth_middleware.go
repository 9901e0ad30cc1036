package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/pkg/jwt"
)

// OperatorContextKey is the key used to store the operator in Gin context
const OperatorContextKey = "operator"

// RoleOperator may reload the route dataset
const RoleOperator = "operator"

// OperatorContext represents the authenticated operator's information
type OperatorContext struct {
	OperatorID uuid.UUID `json:"operator_id"`
	Name       string    `json:"name"`
	Roles      []string  `json:"roles"`
}

func abortUnauthorized(c *gin.Context, errKey, message, code string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   errKey,
		"message": message,
		"code":    code,
	})
	c.Abort()
}

// AuthMiddleware creates a middleware that validates operator JWT tokens
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.WithFields(fields).Warn("Auth failed: missing authorization header")
			abortUnauthorized(c, "unauthorized", "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			logger.WithFields(fields).Warn("Auth failed: invalid authorization format")
			abortUnauthorized(c, "unauthorized", "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}
		tokenString := strings.TrimSpace(parts[1])

		claims, err := jwtService.ValidateOperatorToken(tokenString)
		if err != nil {
			fields["error"] = err.Error()
			if jwtService.IsTokenExpired(tokenString) {
				logger.WithFields(fields).Warn("Auth failed: token expired")
				abortUnauthorized(c, "token_expired", "Operator token has expired", "TOKEN_EXPIRED")
			} else {
				logger.WithFields(fields).Warn("Auth failed: invalid token")
				abortUnauthorized(c, "invalid_token", "Invalid operator token", "INVALID_TOKEN")
			}
			return
		}

		c.Set(OperatorContextKey, OperatorContext{
			OperatorID: claims.OperatorID,
			Name:       claims.Name,
			Roles:      claims.Roles,
		})

		c.Next()
	}
}

// RequireRole creates a middleware that checks if the operator has any of the roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		opCtx, exists := GetOperatorContext(c)
		if !exists {
			abortUnauthorized(c, "unauthorized", "Operator context not found. Auth middleware may not be applied.", "MISSING_OPERATOR_CONTEXT")
			return
		}

		claims := jwt.Claims{Roles: opCtx.Roles}
		if !claims.HasRole(roles...) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "You don't have permission to access this resource",
				"code":    "INSUFFICIENT_PERMISSIONS",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetOperatorContext retrieves the operator context from Gin context
func GetOperatorContext(c *gin.Context) (OperatorContext, bool) {
	value, exists := c.Get(OperatorContextKey)
	if !exists {
		return OperatorContext{}, false
	}

	opCtx, ok := value.(OperatorContext)
	if !ok {
		return OperatorContext{}, false
	}

	return opCtx, true
}
