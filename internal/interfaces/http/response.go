package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// respond envía el sobre de éxito. Si el caso de uso guardó la respuesta de idempotencia
// dentro de su transacción, se envían exactamente esos bytes.
func respond(c *fiber.Ctx, status int, data any, p *idempotency.Pending) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if p.Saved() {
		_, body := p.Response()
		return c.Status(status).Send(body)
	}
	body, err := dto.Render(data)
	if err != nil {
		return err
	}
	return c.Status(status).Send(body)
}

func respondPage(c *fiber.Ctx, data any, total int, q entity.PageQuery) error {
	return c.JSON(dto.Paginated(data, total, q))
}

// parseBody decodifica el JSON de entrada; un cuerpo ilegible es VALIDATION_ERROR.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return domain.ErrValidation.WithMessage("cuerpo inválido").WithDetails(map[string]any{"reason": "JSON mal formado"})
	}
	return nil
}

// pageQuery lee page, page_size, sort_by y sort_order contra la lista blanca del recurso.
func pageQuery(c *fiber.Ctx, sortable []string) (entity.PageQuery, error) {
	var req dto.PageRequest
	if err := c.QueryParser(&req); err != nil {
		return entity.PageQuery{}, domain.ErrValidation.WithDetails(map[string]any{"reason": "parámetros de paginación inválidos"})
	}
	return req.ToQuery(sortable...)
}
