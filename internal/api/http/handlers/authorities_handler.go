package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AuthoritiesHandler exposes auth endpoints for authority operators.
type AuthoritiesHandler struct {
	auth *service.AuthService
}

// NewAuthoritiesHandler constructs handler.
func NewAuthoritiesHandler(authService *service.AuthService) *AuthoritiesHandler {
	return &AuthoritiesHandler{auth: authService}
}

// Login handles POST /auth/authorities/login.
func (h *AuthoritiesHandler) Login(c *fiber.Ctx) error {
	var req dto.AuthorityLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	authority, token, exp, err := h.auth.LoginAuthority(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"authority": fiber.Map{
				"id":    authority.ID,
				"name":  authority.Name,
				"email": authority.Email,
				"role":  authority.Role,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
