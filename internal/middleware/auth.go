package middleware

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-projects/internal/utils"
)

// Locals keys set by JWTProtected.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

// JWTProtected returns a middleware that validates HS256 bearer tokens and
// exposes the subject and role through Locals.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "Authorization header missing")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid token claims")
		}

		userID := extractUserID(claims)
		if userID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid token subject")
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserRole, normalizeRoleValue(claims["role"]))

		return c.Next()
	}
}

// RequireRole rejects callers whose token role is not one of roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		if normalized := normalizeRoleValue(role); normalized != "" {
			allowed = append(allowed, normalized)
		}
	}

	return func(c *fiber.Ctx) error {
		if !slices.Contains(allowed, normalizeRoleValue(c.Locals(LocalUserRole))) {
			return utils.SendError(c, fiber.StatusForbidden, "Insufficient permissions")
		}
		return c.Next()
	}
}

// Identity returns the caller established by JWTProtected.
func Identity(c *fiber.Ctx) (id, role string) {
	id, _ = c.Locals(LocalUserID).(string)
	role, _ = c.Locals(LocalUserRole).(string)
	return id, role
}

func normalizeRoleValue(value interface{}) string {
	role, _ := value.(string)
	return strings.ToLower(strings.TrimSpace(role))
}

func extractUserID(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "user_id", "id"} {
		if value, ok := claims[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
