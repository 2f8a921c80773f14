package httpHandler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"crop-advisor/usecases"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *usecases.AuthUseCase
	log  *slog.Logger
}

func NewAuthHandler(auth *usecases.AuthUseCase, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req usecases.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login handles POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Profile handles GET /profile and echoes the verified token claims.
func (h *AuthHandler) Profile(c *gin.Context) {
	claims := ClaimsFrom(c)
	if claims == nil {
		respondError(c, h.log, usecases.ErrUnauthorized)
		return
	}

	body := gin.H{
		"sub":      claims.Subject,
		"username": claims.Username,
	}
	if claims.ExpiresAt != nil {
		body["exp"] = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		body["iat"] = claims.IssuedAt.Unix()
	}
	c.JSON(http.StatusOK, body)
}
