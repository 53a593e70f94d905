package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/api/dto"
	"github.com/spec-kit/campus-helpdesk/internal/service"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util"
)

// UsersHandler exposes auth endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("full_name, email, password required", nil)
	}

	user, token, exp, err := h.auth.Register(c.Context(), req.FullName, req.Email, req.Phone, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"code":      user.Code,
				"full_name": user.FullName,
				"email":     user.Email,
				"role":      user.Role,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"code":      user.Code,
				"full_name": user.FullName,
				"email":     user.Email,
				"role":      user.Role,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
