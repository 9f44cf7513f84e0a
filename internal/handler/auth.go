package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/service"
	"messenger/pkg/logger"
)

type AuthHandler struct {
	authService      service.AuthService
	twoFactorService service.TwoFactorService
	log              logger.Logger
}

func NewAuthHandler(authService service.AuthService, twoFactorService service.TwoFactorService, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		twoFactorService: twoFactorService,
		log:              log,
	}
}

type SignUpRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpWith2faRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type Confirm2faRequest struct {
	Code    string `json:"code" binding:"required"`
	Counter *int   `json:"counter" binding:"required,min=0"`
}

type Resend2faRequest struct {
	Counter *int `json:"counter" binding:"required,min=0"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid signup request", "error", err)
		bindError(c, err)
		return
	}

	res, err := h.authService.SignUp(c.Request.Context(), service.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.log.Warn("Signup failed", "error", err, "email", req.Email)
		fail(c, err)
		return
	}

	h.log.Info("User signed up", "user_id", res.User.ID)
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid login request", "error", err)
		bindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Warn("Login failed", "error", err, "email", req.Email)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) SignUpWith2fa(c *gin.Context) {
	var req SignUpWith2faRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.twoFactorService.SignUpWith2fa(c.Request.Context(), req.Email)
	if err != nil {
		h.log.Warn("2fa signup failed", "error", err, "email", req.Email)
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Confirm2fa(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req Confirm2faRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.twoFactorService.Verify2faCode(c.Request.Context(), userID, req.Code, *req.Counter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Resend2fa(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req Resend2faRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	counter, err := h.twoFactorService.Resend2faCode(c.Request.Context(), userID, *req.Counter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counter": counter})
}
