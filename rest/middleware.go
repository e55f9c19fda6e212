package rest

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-identity"
)

// ClaimsContextKey is the fiber locals key under which RequireAuth stores the
// verified claims.
const ClaimsContextKey = "identity:claims"

// RequireAuth is a route middleware that rejects requests without a valid
// bearer credential and exposes the claims to downstream handlers.
func RequireAuth(validator identity.TokenValidator) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		claims, err := validator.Validate(token)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid bearer token"})
		}

		ctx.Locals(ClaimsContextKey, claims)
		return ctx.Next()
	}
}

// ClaimsFromContext returns the claims stored by RequireAuth, or nil when the
// request did not pass through it.
func ClaimsFromContext(ctx *fiber.Ctx) *identity.IdentityClaims {
	claims, _ := ctx.Locals(ClaimsContextKey).(*identity.IdentityClaims)
	return claims
}
