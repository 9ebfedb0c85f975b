package middleware

import (
	"collaborative-notes/auth"
	"collaborative-notes/internal/errors"
	"collaborative-notes/internal/user"
	"strings"

	"github.com/gin-gonic/gin"
)

type UserProvider interface {
	GetUserByID(id uint64) (*user.User, error)
}

type Auth struct {
	UserService UserProvider
}

// AuthMiddleWare resolves the authenticated principal from the access token.
// Browsers keep the token in an HttpOnly cookie; WebSocket handshakes and
// API clients may send it as a Bearer header or `token` query parameter.
func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := extractToken(ctx)
		if token == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		parsedToken, err := auth.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, tokenType, err := auth.GetDataFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		if tokenType != "access" {
			ctx.Error(errors.Unauthorized("Invalid token type!", nil))
			ctx.Abort()
			return
		}

		u, err := m.UserService.GetUserByID(userID)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid User ID!", err))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", u.ID)
		ctx.Set("user_name", u.Name)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) string {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if tokenQuery := ctx.Query("token"); tokenQuery != "" {
		return tokenQuery
	}
	if cookie, err := ctx.Cookie("accessToken"); err == nil {
		return cookie
	}
	return ""
}
