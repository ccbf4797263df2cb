package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/auth"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
)

// AuthHandler login, refresh y logout.
type AuthHandler struct {
	uc *auth.AuthUseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password, tenant_id opcional"
// @Success      200   {object}  dto.SuccessResponse{data=dto.TokenResponse}
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Login(c.Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success(out))
}

// Refresh godoc
// @Summary      Rotar refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RefreshRequest  true  "refresh_token"
// @Success      200   {object}  dto.SuccessResponse{data=dto.TokenResponse}
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var in dto.RefreshRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if err := dto.Validate(in); err != nil {
		return err
	}
	out, err := h.uc.Refresh(c.Context(), in.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success(out))
}

// Logout godoc
// @Summary      Cerrar sesión (revoca la familia del refresh token)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RefreshRequest  true  "refresh_token"
// @Success      200   {object}  dto.SuccessResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var in dto.RefreshRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if err := dto.Validate(in); err != nil {
		return err
	}
	if err := h.uc.Logout(c.Context(), in.RefreshToken); err != nil {
		return err
	}
	return c.JSON(dto.Success(fiber.Map{"logged_out": true}))
}
