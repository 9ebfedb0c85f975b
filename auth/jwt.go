package auth

import (
	"collaborative-notes/internal/config"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

func GenerateAccessToken(userID uint64) (string, error) {
	return generateToken(userID, "access", AccessTokenTTL)
}

func GenerateRefreshToken(userID uint64) (string, error) {
	return generateToken(userID, "refresh", RefreshTokenTTL)
}

func generateToken(userID uint64, tokenType string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    tokenType,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	// parse token
	jwtToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	// isValid
	if !jwtToken.Valid {
		return nil, errors.New("token invalid")
	}

	return jwtToken, nil
}

// GetDataFromToken extracts the user ID and token type from verified claims
func GetDataFromToken(token *jwt.Token) (uint64, string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid token claims")
	}

	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", errors.New("user_id not found in token")
	}

	tokenType, _ := claims["type"].(string)

	return uint64(rawID), tokenType, nil
}
