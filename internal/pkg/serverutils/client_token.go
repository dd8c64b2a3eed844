package serverutils

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const LocalClientID = "client_id"

// ClientTokens issues and verifies the bearer token that identifies a device.
// A token carries only a client id; it is not a user login.
type ClientTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewClientTokens(secret string, ttl time.Duration) *ClientTokens {
	return &ClientTokens{secret: []byte(secret), ttl: ttl}
}

// Issue creates a token for clientID, or for a new id when clientID is empty.
func (t *ClientTokens) Issue(clientID string) (token string, id string, expiresAt time.Time, err error) {
	if clientID == "" {
		clientID = uuid.NewString()
	}
	expiresAt = time.Now().Add(t.ttl)

	claims := jwt.MapClaims{
		"client_id": clientID,
		"exp":       expiresAt.Unix(),
		"iat":       time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, clientID, expiresAt, nil
}

func (t *ClientTokens) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	id, _ := claims["client_id"].(string)
	if id == "" {
		return "", errors.New("missing client id")
	}
	return id, nil
}

// Middleware reads "Authorization: Bearer <token>" or, for websocket
// upgrades, the "token" query parameter.
func (t *ClientTokens) Middleware(ctx *fiber.Ctx) error {
	tokenStr := ""
	if authHeader := ctx.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		tokenStr = authHeader[7:]
	} else {
		tokenStr = ctx.Query("token")
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
	}

	clientID, err := t.Verify(tokenStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
	}

	ctx.Locals(LocalClientID, clientID)
	return ctx.Next()
}

func ClientID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(LocalClientID).(string)
	return id
}
