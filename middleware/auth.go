package middleware

import (
	"fmt"
	"strings"

	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Context keys set by AuthMiddleware
const (
	ContextActorID = "actor_id"
	ContextRole    = "role"
)

// Roles allowed on elevated endpoints
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// AuthMiddleware validates the bearer token and stores the caller in the context
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.LogWarn("Missing Authorization header on %s", c.Request.URL.Path)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.LogWarn("Invalid Bearer token format")
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			utils.LogWarn("Invalid token: %v", err)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.Unauthorized(c, "Invalid token claims")
			c.Abort()
			return
		}

		actorID := claimString(claims, "user_id")
		if actorID == "" {
			actorID = claimString(claims, "actor_id")
		}
		if actorID == "" {
			utils.LogWarn("Token without subject")
			utils.Unauthorized(c, "Invalid token claims")
			c.Abort()
			return
		}

		c.Set(ContextActorID, actorID)
		c.Set(ContextRole, strings.ToLower(claimString(claims, "role")))
		c.Next()
	}
}

// RequireRole rejects callers whose role is not one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		utils.LogWarn("Actor %s with role %q denied access to %s", c.GetString(ContextActorID), role, c.Request.URL.Path)
		utils.Forbidden(c, "Insufficient permissions")
		c.Abort()
	}
}

// ActorID returns the authenticated caller
func ActorID(c *gin.Context) string {
	return c.GetString(ContextActorID)
}

// user ids may be encoded as numbers by older token issuers
func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}
