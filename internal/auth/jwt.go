package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gateready.app/booking-assistant/internal/config"
)

// AuthResult is what the rest of the service consumes; token mechanics stay here.
type AuthResult struct {
	UserID          string
	IsAuthenticated bool
	TokenID         string
}

func GenerateJWT(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Duration(config.AppConfig.AccessTTLMinutes) * time.Minute).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func GenerateRefreshJWT(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": "refresh",
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(time.Duration(config.AppConfig.RefreshTTLDays) * 24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTRefreshSecret))
}

func parseHS256(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// DecodeBearerToken resolves an Authorization header into an AuthResult.
// Any malformed or unverifiable input yields an unauthenticated result, never an error.
func DecodeBearerToken(authHeader string) AuthResult {
	if authHeader == "" {
		return AuthResult{}
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return AuthResult{}
	}

	claims, err := parseHS256(parts[1], config.AppConfig.JWTSecret)
	if err != nil {
		return AuthResult{}
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return AuthResult{}
	}
	return AuthResult{UserID: userID, IsAuthenticated: true}
}

// DecodeRefreshToken validates a refresh token and surfaces its jti so the
// handler can check and extend the revoked set.
func DecodeRefreshToken(tokenString string) AuthResult {
	if tokenString == "" {
		return AuthResult{}
	}
	claims, err := parseHS256(tokenString, config.AppConfig.JWTRefreshSecret)
	if err != nil {
		return AuthResult{}
	}
	if typ, _ := claims["type"].(string); typ != "refresh" {
		return AuthResult{}
	}
	userID, _ := claims["sub"].(string)
	tokenID, _ := claims["jti"].(string)
	if userID == "" || tokenID == "" {
		return AuthResult{}
	}
	return AuthResult{UserID: userID, IsAuthenticated: true, TokenID: tokenID}
}

// BearerToken extracts the opaque token string from an Authorization header
// without validating it; the gateway passes it through as-is.
func BearerToken(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
