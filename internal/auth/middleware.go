package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserName  = "user_name"
	ctxUserRole  = "user_role"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is empty"})
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or malformed token"})
			}
			return
		}

		if claims.TokenType != tokenTypeAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserName, claims.Name)
		c.Set(ctxUserRole, claims.Role)

		c.Next()
	}
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxUserRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid role type"})
			return
		}

		if roleStr != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(int)
	if !ok {
		return 0, false
	}

	return id, true
}

// GetIdentity returns the authenticated session subject.
func GetIdentity(c *gin.Context) (Identity, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return Identity{}, false
	}
	return Identity{
		UserID: id,
		Email:  c.GetString(ctxUserEmail),
		Name:   c.GetString(ctxUserName),
		Role:   c.GetString(ctxUserRole),
	}, true
}

// SetIdentity stores id on the context the same way AuthMiddleware does.
// Handler tests use it to fake a session.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxUserEmail, id.Email)
	c.Set(ctxUserName, id.Name)
	c.Set(ctxUserRole, id.Role)
}
