package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/pkg/response"
)

type authService interface {
	AdminLogin(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	InstructorLogin(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	PortalLogin(ctx context.Context, req models.PortalLoginRequest) (*models.LoginResponse, error)
}

// AuthHandler exposes the three login endpoints.
type AuthHandler struct {
	service authService
}

func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// AdminLogin godoc
// @Summary Admin login
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/auth/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return
	}
	res, err := h.service.AdminLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// InstructorLogin godoc
// @Summary Instructor login
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /instructor/auth/login [post]
func (h *AuthHandler) InstructorLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return
	}
	res, err := h.service.InstructorLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// PortalLogin godoc
// @Summary Student portal login with phone and access code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.PortalLoginRequest true "Phone and code"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /portal/login [post]
func (h *AuthHandler) PortalLogin(c *gin.Context) {
	var req models.PortalLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return
	}
	res, err := h.service.PortalLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
