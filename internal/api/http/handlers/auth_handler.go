package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/finsupport/triage-service/internal/api/dto"
	"github.com/finsupport/triage-service/internal/service"
	apperrors "github.com/finsupport/triage-service/pkg/util/errorutil"
)

// AuthHandler manages operator authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	operator, token, exp, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:       token,
		ExpiresAt:   exp,
		OperatorID:  operator.ID,
		DisplayName: operator.DisplayName,
	}})
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.DisplayName) == "" {
		return apperrors.NewValidationError("email, display_name, password required", nil)
	}

	operator, err := h.service.Register(c.UserContext(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":           operator.ID,
		"email":        operator.Email,
		"display_name": operator.DisplayName,
	}})
}
