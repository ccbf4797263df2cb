package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/usecase"
)

// CompanyHandler alta de tenants y de usuarios dentro del tenant.
type CompanyHandler struct {
	companies *usecase.CompanyUseCase
	users     *usecase.UserUseCase
}

// NewCompanyHandler construye el handler inyectando los casos de uso.
func NewCompanyHandler(companies *usecase.CompanyUseCase, users *usecase.UserUseCase) *CompanyHandler {
	return &CompanyHandler{companies: companies, users: users}
}

// Provision godoc
// @Summary      Dar de alta un tenant
// @Description  Crea la empresa, su administrador y opcionalmente el plan de cuentas base. Solo superusuarios.
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ProvisionTenantRequest  true  "Tenant"
// @Success      201   {object}  dto.SuccessResponse{data=dto.CompanyResponse}
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/admin/tenants [post]
func (h *CompanyHandler) Provision(c *fiber.Ctx) error {
	var in dto.ProvisionTenantRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.companies.Provision(c.Context(), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, out, pendingFor(c, fiber.StatusCreated))
}

// CreateUser godoc
// @Summary      Crear usuario del tenant
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateUserRequest  true  "Usuario"
// @Success      201   {object}  dto.SuccessResponse{data=dto.UserResponse}
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/users [post]
func (h *CompanyHandler) CreateUser(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	pending := pendingFor(c, fiber.StatusCreated)
	out, err := h.users.Create(c.Context(), Scope(c), in, pending)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, out, pending)
}
