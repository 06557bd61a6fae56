package serverutils

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken = errors.New("Missing token")
	errInvalidToken = errors.New("Invalid token")
	errBadClaims    = errors.New("Invalid claims")
)

func JwtMiddleware(ctx *fiber.Ctx) error {
	userID, err := userFromHeader(ctx.Get("Authorization"))
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
	}

	ctx.Locals("user_id", userID)
	return ctx.Next()
}

// OptionalJwtMiddleware sets user_id when a valid token is present and lets
// anonymous requests through. A present but invalid token is still rejected.
func OptionalJwtMiddleware(ctx *fiber.Ctx) error {
	userID, err := userFromHeader(ctx.Get("Authorization"))
	if errors.Is(err, errMissingToken) {
		return ctx.Next()
	}
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
	}

	ctx.Locals("user_id", userID)
	return ctx.Next()
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals("user_id").(string)
	return id
}

func userFromHeader(authHeader string) (string, error) {
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errMissingToken
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errBadClaims
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errBadClaims
	}
	return userID, nil
}
