package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/pkg/ids"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// StatusFor traduce el código de dominio al status HTTP.
func StatusFor(code domain.Code) int {
	switch code {
	case domain.CodeTenantRequired, domain.CodeTenantInvalid:
		return fiber.StatusBadRequest
	case domain.CodeAuthInvalidCredentials, domain.CodeAuthTokenExpired, domain.CodeAuthTokenRevoked,
		domain.CodeAuthTokenMalformed, domain.CodeAuthTokenMissing, domain.CodeRefreshTokenReuse:
		return fiber.StatusUnauthorized
	case domain.CodeForbidden:
		return fiber.StatusForbidden
	case domain.CodeNotFound:
		return fiber.StatusNotFound
	case domain.CodeConflict, domain.CodeIdempotencyConflict:
		return fiber.StatusConflict
	case domain.CodePostingUnbalanced, domain.CodePostingInvalidAccount,
		domain.CodePostingApprovalRequired, domain.CodePostingNotReversible:
		return fiber.StatusBadRequest
	case domain.CodeValidation:
		return fiber.StatusUnprocessableEntity
	case domain.CodeRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// fiberCode código de dominio para errores propios de fiber (ruta inexistente, body enorme...).
func fiberCode(status int) domain.Code {
	switch {
	case status == fiber.StatusNotFound:
		return domain.CodeNotFound
	case status == fiber.StatusTooManyRequests:
		return domain.CodeRateLimited
	case status == fiber.StatusUnauthorized:
		return domain.CodeAuthTokenMissing
	case status == fiber.StatusForbidden:
		return domain.CodeForbidden
	case status >= 400 && status < 500:
		return domain.CodeValidation
	default:
		return domain.CodeInternal
	}
}

// ErrorHandler punto único donde los errores se convierten en el sobre de error.
// Los internos se registran con un error_id que es lo único que ve el cliente.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx, err error) error {
		var de *domain.Error
		var fe *fiber.Error
		switch {
		case errors.As(err, &de) && de.Code != domain.CodeInternal:
			return writeError(c, StatusFor(de.Code), de.Message, de.Code, de.Details)
		case errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError:
			return writeError(c, fe.Code, fe.Message, fiberCode(fe.Code), nil)
		}

		errorID := ids.New()
		RequestLogger(c, log).Error().Err(err).
			Str(logger.FieldErrorID, errorID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("error no controlado")
		return writeError(c, fiber.StatusInternalServerError, domain.ErrInternal.Message, domain.CodeInternal,
			map[string]any{"error_id": errorID})
	}
}

func writeError(c *fiber.Ctx, status int, message string, code domain.Code, details map[string]any) error {
	return c.Status(status).JSON(dto.Failure(message, code, details))
}
