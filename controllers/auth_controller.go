package controllers

import (
	"errors"
	"net/http"

	"stratusdrive/services"
	"stratusdrive/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register creates the account together with its drive root and signs the
// new user in.
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	user, tokens, err := ac.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			utils.ErrorResponse(c, http.StatusConflict, "Username or email already taken", nil)
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Registration successful", gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}
	if req.Username == "" && req.Email == "" {
		utils.BadRequestResponse(c, "Username or email required")
		return
	}

	user, tokens, err := ac.authService.Login(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh rotates the refresh token against an expired access token.
func (ac *AuthController) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	tokens, err := ac.authService.Refresh(c.Request.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.UnauthorizedResponse(c, "Invalid or expired refresh token")
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Token refreshed", tokens)
}

func (ac *AuthController) Revoke(c *gin.Context) {
	userID := c.GetString("userId")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	if err := ac.authService.Revoke(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Refresh token revoked", nil)
}

// Profile returns the authenticated user's record.
func (ac *AuthController) Profile(c *gin.Context) {
	_, user, ok := resolveCaller(c, ac.authService)
	if !ok {
		return
	}
	utils.SuccessResponse(c, "Profile retrieved", user)
}
