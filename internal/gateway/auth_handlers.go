package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/auth"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/store"
	"go.uber.org/zap"
)

// SignupResponse is returned by Signup. Token and Role are set only for
// accounts that may log in immediately.
type SignupResponse struct {
	Message string          `json:"message"`
	User    models.UserInfo `json:"user"`
	Token   string          `json:"token,omitempty"`
	Role    string          `json:"role,omitempty"`
}

// TokenResponse carries a refreshed token
type TokenResponse struct {
	Token string `json:"token"`
}

// Signup godoc
// @Summary Register an account
// @Description Create a public, hospital or government account. Hospital accounts wait for government verification.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Account details"
// @Success 201 {object} SignupResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		badRequest(c, "Name, email, password and role are required")
		return
	}
	if !models.ValidRole(req.Role) {
		badRequest(c, "Role must be public, hospital or government")
		return
	}
	if req.Role == models.RoleHospital && strings.TrimSpace(req.RegNumber) == "" {
		badRequest(c, "Registration number is required for hospitals")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetUserByEmail(ctx, req.Email); err == nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeAlreadyExists, "User already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.storeFailure(c, err, "User")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		respondError(c, http.StatusInternalServerError, models.ErrCodeInternalError, "Server error during signup")
		return
	}

	user := &models.User{
		Name:           strings.TrimSpace(req.Name),
		Email:          req.Email,
		HashedPassword: hash,
		Role:           req.Role,
		IsVerified:     req.Role != models.RoleHospital,
		Location:       req.Location,
		Phone:          req.Phone,
	}
	switch req.Role {
	case models.RolePublic:
		user.PublicProfile = &models.PublicProfile{
			HealthRecords: models.HealthRecords{Age: req.Age, Gender: req.Gender},
		}
	case models.RoleHospital:
		hospitalType := req.Type
		if hospitalType == "" {
			hospitalType = "General"
		}
		user.HospitalProfile = &models.HospitalProfile{RegNumber: req.RegNumber, Type: hospitalType}
	}

	if err := h.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(c, http.StatusBadRequest, models.ErrCodeAlreadyExists, "User already exists")
			return
		}
		h.storeFailure(c, err, "User")
		return
	}

	if user.Role == models.RoleHospital {
		if _, err := h.store.EnsureHospital(ctx, user.ID); err != nil {
			h.storeFailure(c, err, "Hospital")
			return
		}
		h.logger.Info("hospital registered, awaiting verification", zap.String("user_id", user.ID))
		c.JSON(http.StatusCreated, SignupResponse{
			Message: "Signup successful! Pending Government verification.",
			User:    user.ToUserInfo(),
		})
		return
	}

	token, err := h.jwtManager.GenerateToken(ctx, user.ID, user.Email, user.Role, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		respondError(c, http.StatusInternalServerError, models.ErrCodeInternalError, "Failed to generate token")
		return
	}

	h.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", user.Role))
	c.JSON(http.StatusCreated, SignupResponse{
		Message: "User registered successfully",
		User:    user.ToUserInfo(),
		Token:   token,
		Role:    user.Role,
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate and return a JWT. When role is given it must match the account.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		badRequest(c, "Please provide email and password")
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.storeFailure(c, err, "User")
			return
		}
		h.logger.Warn("login for unknown email", zap.String("email", email))
		respondError(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid email or password")
		return
	}

	if !auth.CheckPassword(user.HashedPassword, req.Password) {
		h.logger.Warn("invalid password", zap.String("user_id", user.ID))
		respondError(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid email or password")
		return
	}

	if role := strings.ToLower(strings.TrimSpace(req.Role)); role != "" && role != strings.ToLower(user.Role) {
		badRequest(c, fmt.Sprintf("This email is registered as '%s', not '%s'. Please switch tabs.",
			strings.ToUpper(user.Role), strings.ToUpper(role)))
		return
	}

	if user.Role == models.RoleHospital && !user.IsVerified {
		respondError(c, http.StatusForbidden, models.ErrCodeForbidden, "Account pending Government verification.")
		return
	}

	token, err := h.jwtManager.GenerateToken(ctx, user.ID, user.Email, user.Role, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		respondError(c, http.StatusInternalServerError, models.ErrCodeInternalError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token: token,
		Role:  user.Role,
		User:  user.ToUserInfo(),
	})
}

// Refresh godoc
// @Summary Refresh token
// @Description Exchange a valid token for a new one with a fresh expiry
// @Tags auth
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(raw) > len("Bearer ") {
		raw = strings.TrimSpace(raw[len("Bearer "):])
	}

	token, err := h.jwtManager.RefreshToken(c.Request.Context(), raw, h.tokenTTL)
	if err != nil {
		respondError(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid or expired token")
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
