package dto

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate aplica las etiquetas `validate` del DTO y traduce el primer fallo por campo
// a domain.ErrValidation con details {fields: {campo: regla}}.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrValidation.Wrap(err)
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()] = fe.Tag()
	}
	return domain.ErrValidation.WithDetails(map[string]any{"fields": fields})
}
