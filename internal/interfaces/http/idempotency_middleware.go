package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// IdempotencyMiddleware aplica Idempotency-Key a las rutas mutantes. Requiere tenant resuelto.
//
// El endpoint registrado es método + ruta efectiva, de modo que la misma clave contra
// /journal-entries/a/reverse y /journal-entries/b/reverse es un conflicto y no un replay.
func IdempotencyMiddleware(svc *idempotency.Service, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		if !isMutating(c.Method()) {
			return c.Next()
		}
		key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if key == "" {
			return c.Next()
		}
		if err := idempotency.ValidateKey(key); err != nil {
			return err
		}
		tenantID := GetTenantID(c)
		if tenantID == "" {
			return domain.ErrTenantRequired
		}
		ctx := c.Context()
		endpoint := c.Method() + " " + c.Path()
		body := c.Body()

		acquired, err := svc.Acquire(ctx, tenantID, key)
		if err != nil {
			return err
		}
		if !acquired {
			return domain.ErrConflict.WithMessage("hay una petición en curso con la misma Idempotency-Key")
		}
		defer svc.Release(context.WithoutCancel(ctx), tenantID, key)

		rec, outcome, err := svc.Lookup(ctx, tenantID, key, endpoint, body)
		if err != nil {
			return err
		}
		switch outcome {
		case idempotency.Replay:
			c.Set(HeaderReplayed, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(rec.StatusCode).Send(rec.ResponseBody)
		case idempotency.Mismatch:
			return domain.ErrIdempotencyConflict.WithDetails(map[string]any{"endpoint": rec.Endpoint})
		}

		pending := svc.Begin(tenantID, key, endpoint, body)
		c.Locals(LocalPending, pending)
		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 || pending.Saved() {
			return nil
		}
		stored := append([]byte(nil), c.Response().Body()...)
		if err := svc.SaveAfterCommit(ctx, pending, status, stored); err != nil {
			RequestLogger(c, log).Error().Err(err).Str("endpoint", endpoint).Msg("no se pudo guardar la respuesta idempotente")
		}
		return nil
	}
}

func isMutating(method string) bool {
	switch method {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		return true
	}
	return false
}
