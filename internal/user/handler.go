package user

import (
	"collaborative-notes/auth"
	"collaborative-notes/internal/config"
	"collaborative-notes/internal/errors"
	"collaborative-notes/redis"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for users
type Handler struct {
	service Service
}

// NewHandler creates a new user handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// FormLogin represents login form data
type FormLogin struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FormRegister represents registration form data
type FormRegister struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	var form FormRegister
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user := &User{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		IsActive: true,
	}

	if err := h.service.Register(user); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToSafeUser()})
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user, err := h.service.Login(form.Email, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	accessToken, err := auth.GenerateAccessToken(user.ID)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	refreshToken, err := auth.GenerateRefreshToken(user.ID)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	// Any previously stored refresh token for this user is replaced
	if err := redis.StoreRefreshToken(user.ID, refreshToken, auth.RefreshTokenTTL); err != nil {
		c.Error(errors.Internal(err))
		return
	}

	setAuthCookies(c, accessToken, refreshToken)

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"user":         user.ToSafeUser(),
	})
}

// RefreshToken rotates the refresh token and issues a new access token
func (h *Handler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie("refreshToken")
	if err != nil {
		c.Error(errors.Unauthorized("No refresh token", err))
		return
	}

	token, err := auth.VerifyJWT(refreshToken)
	if err != nil {
		c.Error(errors.Forbidden("Invalid refresh token", err))
		return
	}

	userID, tokenType, err := auth.GetDataFromToken(token)
	if err != nil || tokenType != "refresh" {
		c.Error(errors.Forbidden("Invalid refresh token", err))
		return
	}

	user, err := h.service.GetUserByID(userID)
	if err != nil {
		c.Error(errors.Forbidden("Forbidden", err))
		return
	}

	// Must match the stored token, so logout and rotation revoke old ones
	if err := redis.ValidateRefreshToken(user.ID, refreshToken); err != nil {
		c.Error(errors.Forbidden("Forbidden", err))
		return
	}

	accessToken, err := auth.GenerateAccessToken(user.ID)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	newRefreshToken, err := auth.GenerateRefreshToken(user.ID)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	if err := redis.StoreRefreshToken(user.ID, newRefreshToken, auth.RefreshTokenTTL); err != nil {
		c.Error(errors.Internal(err))
		return
	}

	setAuthCookies(c, accessToken, newRefreshToken)

	c.JSON(http.StatusOK, gin.H{
		"message":      "Token refreshed",
		"access_token": accessToken,
	})
}

// Logout handles user logout
func (h *Handler) Logout(c *gin.Context) {
	if userID, exists := c.Get("user_id"); exists {
		if err := redis.RevokeRefreshToken(userID.(uint64)); err != nil {
			log.Printf("Failed to revoke refresh token: %v", err)
		}
	}

	clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetProfile handles getting the current user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.Error(errors.Unauthorized("User not found", nil))
		return
	}

	user, err := h.service.GetUserByID(userID.(uint64))
	if err != nil {
		c.Error(errors.Unauthorized("User not found", err))
		return
	}

	c.JSON(http.StatusOK, user.ToSafeUser())
}

func setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	secure := config.AppConfig.Environment == "production"
	c.SetCookie("accessToken", accessToken, int(auth.AccessTokenTTL.Seconds()), "/", "", secure, true)
	c.SetCookie("refreshToken", refreshToken, int(auth.RefreshTokenTTL.Seconds()), "/", "", secure, true)
}

func clearAuthCookies(c *gin.Context) {
	c.SetCookie("accessToken", "", -1, "/", "", true, true)
	c.SetCookie("refreshToken", "", -1, "/", "", true, true)
}
