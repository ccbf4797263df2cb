package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
)

func TestError_IsComparaPorCodigo(t *testing.T) {
	derived := domain.ErrPostingUnbalanced.WithDetails(map[string]any{"total_debit": "100.00"})
	wrapped := fmt.Errorf("post: %w", derived)

	assert.True(t, errors.Is(wrapped, domain.ErrPostingUnbalanced))
	assert.False(t, errors.Is(wrapped, domain.ErrNotFound))
	assert.Equal(t, domain.CodePostingUnbalanced, domain.CodeOf(wrapped))
}

func TestError_WithDetailsNoMutaCentinela(t *testing.T) {
	_ = domain.ErrValidation.WithDetails(map[string]any{"field": "x"})
	assert.Empty(t, domain.ErrValidation.Details)
}

func TestCodeOf_ErrorDesconocidoEsInterno(t *testing.T) {
	assert.Equal(t, domain.CodeInternal, domain.CodeOf(errors.New("boom")))
}

func TestError_WrapConservaCausa(t *testing.T) {
	cause := errors.New("duplicate key")
	err := domain.ErrConflict.Wrap(cause)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, domain.ErrConflict))
}
