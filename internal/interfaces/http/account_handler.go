package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/usecase"
)

// AccountHandler plan de cuentas.
type AccountHandler struct {
	uc *usecase.AccountUseCase
}

// NewAccountHandler construye el handler.
func NewAccountHandler(uc *usecase.AccountUseCase) *AccountHandler {
	return &AccountHandler{uc: uc}
}

// Create godoc
// @Summary      Crear cuenta contable
// @Tags         gl
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateAccountRequest  true  "Cuenta"
// @Success      201   {object}  dto.SuccessResponse{data=dto.AccountResponse}
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/v1/gl/accounts [post]
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAccountRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	pending := pendingFor(c, fiber.StatusCreated)
	out, err := h.uc.Create(c.Context(), Scope(c), in, pending)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, out, pending)
}

// List godoc
// @Summary      Listar cuentas
// @Tags         gl
// @Produce      json
// @Security     BearerAuth
// @Param        page        query  int     false  "Página"  default(1)
// @Param        page_size   query  int     false  "Tamaño"  default(20)
// @Param        sort_by     query  string  false  "account_code, account_name, account_type, created_at"
// @Param        sort_order  query  string  false  "asc | desc"
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.AccountResponse}
// @Router       /api/v1/gl/accounts [get]
func (h *AccountHandler) List(c *fiber.Ctx) error {
	q, err := pageQuery(c, usecase.AccountSortFields)
	if err != nil {
		return err
	}
	page, err := h.uc.List(c.Context(), Scope(c), q)
	if err != nil {
		return err
	}
	return respondPage(c, page.Items, page.Total, q)
}
