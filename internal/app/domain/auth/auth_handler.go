package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/handlers"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

type SignUpRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	DisplayName     string `json:"display_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetConfirmRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type ProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

type AuthHandlers struct {
	*handlers.BaseHandler
	authService AuthService
}

func NewAuthHandlers(authService AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		BaseHandler: handlers.NewBaseHandler(logger),
		authService: authService,
	}
}

// SignUp POST /auth/signup. A successful sign up also signs the session in.
func (h *AuthHandlers) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "email, password, confirm_password and display_name are required")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.authService.SignUp(ctx, SignUpInput(req)); err != nil {
		h.RespondError(c, err)
		return
	}

	user, tokens, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	h.startSession(c, user, tokens)
	c.JSON(http.StatusCreated, gin.H{"user": user, "expires_at": tokens.ExpiresAt})
}

// Login POST /auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "email and password are required")
		return
	}

	user, tokens, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.Logger.Warn("Invalid login credentials", zap.String("email", req.Email))
		h.RespondError(c, err)
		return
	}

	h.startSession(c, user, tokens)
	c.JSON(http.StatusOK, gin.H{"user": user, "expires_at": tokens.ExpiresAt})
}

// Refresh POST /auth/refresh rotates the refresh token cookie.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(RefreshTokenCookie)
	if err != nil || refresh == "" {
		h.AuthRequired(c)
		return
	}

	user, tokens, err := h.authService.RefreshSession(c.Request.Context(), refresh)
	if err != nil {
		h.clearCookies(c)
		h.AuthRequired(c)
		return
	}

	h.startSession(c, user, tokens)
	c.JSON(http.StatusOK, gin.H{"user": user, "expires_at": tokens.ExpiresAt})
}

// Logout POST /auth/logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	if refresh, err := c.Cookie(RefreshTokenCookie); err == nil {
		if err := h.authService.Logout(c.Request.Context(), refresh); err != nil {
			h.Logger.Warn("Logout could not revoke refresh token", zap.Error(err))
		}
	}

	h.clearCookies(c)
	interactions.FromContext(c).SignOut()
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// RequestReset POST /auth/reset
func (h *AuthHandlers) RequestReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "email is required")
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Email); err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "if the address is registered, a reset link is on its way"})
}

// ConfirmReset POST /auth/reset/confirm
func (h *AuthHandlers) ConfirmReset(c *gin.Context) {
	var req ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "token, password and confirm_password are required")
		return
	}

	if err := h.authService.CompleteReset(c.Request.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// UpdateProfile PUT /api/profile
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	store := interactions.FromContext(c)
	if !store.RequireAuth() {
		h.AuthRequired(c)
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "display_name is required")
		return
	}

	user, tokens, err := h.authService.UpdateProfile(c.Request.Context(), store.Session().UserID(), req.DisplayName)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	setCookie(c, AccessTokenCookie, tokens.AccessToken, time.Until(tokens.ExpiresAt))
	store.SignIn(*user)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandlers) startSession(c *gin.Context, user *models.User, tokens *models.Tokens) {
	setCookie(c, AccessTokenCookie, tokens.AccessToken, time.Until(tokens.ExpiresAt))
	if tokens.RefreshToken != "" {
		setCookie(c, RefreshTokenCookie, tokens.RefreshToken, 30*24*time.Hour)
	}
	interactions.FromContext(c).SignIn(*user)

	h.Logger.Info("Session signed in",
		zap.String("user_id", user.ID),
		zap.Time("expires_at", tokens.ExpiresAt),
	)
}

func (h *AuthHandlers) clearCookies(c *gin.Context) {
	setCookie(c, AccessTokenCookie, "", -1)
	setCookie(c, RefreshTokenCookie, "", -1)
}

func setCookie(c *gin.Context, name, value string, maxAge time.Duration) {
	seconds := int(maxAge.Seconds())
	if maxAge < 0 {
		seconds = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   seconds,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
