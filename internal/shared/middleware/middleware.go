package middleware

import (
	"errors"
	"net/http"
	"strings"

	"busline/internal/shared/config"
	"busline/internal/shared/utils/response"
	"busline/internal/users"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

var ErrNoActor = errors.New("no authenticated actor in context")

// JWTAuth verifies access tokens issued by the identity provider
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		actor, err := parseActor(cfg, parts[1])
		if err != nil {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), err.Error(), c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		setActor(c, actor)
		c.Next()
	}
}

// OptionalAuth sets the actor when a valid token is present and never rejects
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if actor, err := parseActor(cfg, parts[1]); err == nil {
				setActor(c, actor)
			}
		}
		c.Next()
	}
}

func parseActor(cfg *config.Config, tokenString string) (users.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("token is not valid")
		}
		return users.Actor{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return users.Actor{}, errors.New("unexpected claims type")
	}
	if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
		return users.Actor{}, errors.New("invalid token type")
	}
	if cfg.JWT.Issuer != "" && !claims.VerifyIssuer(cfg.JWT.Issuer, true) {
		return users.Actor{}, errors.New("unexpected issuer")
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return users.Actor{}, errors.New("user_id claim missing")
	}
	if role == "" {
		role = string(users.RoleUser)
	}
	if !users.IsValidRole(role) {
		return users.Actor{}, errors.New("unknown role claim")
	}

	return users.Actor{ID: userID, Role: users.Role(role)}, nil
}

func setActor(c *gin.Context, actor users.Actor) {
	c.Set(ctxUserID, actor.ID)
	c.Set(ctxUserRole, string(actor.Role))
}

// ActorFromContext returns the caller set by JWTAuth or OptionalAuth
func ActorFromContext(c *gin.Context) (users.Actor, error) {
	userID := c.GetString(ctxUserID)
	if userID == "" {
		return users.Actor{}, ErrNoActor
	}
	return users.Actor{ID: userID, Role: users.Role(c.GetString(ctxUserRole))}, nil
}

// RequireRoles middleware checks if user has any of the required roles
func RequireRoles(requiredRoles ...users.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ctxUserRole)
		if !exists {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "user role not found in context", nil, nil)
			c.Abort()
			return
		}

		for _, role := range requiredRoles {
			if userRole == string(role) {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

// RequireAdmin middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(users.RoleAdmin)
}
