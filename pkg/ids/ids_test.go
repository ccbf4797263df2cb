package ids_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Contabilidad-api/pkg/ids"
)

func TestNew_MonotonicoYValido(t *testing.T) {
	prev := ids.New()
	for i := 0; i < 100; i++ {
		next := ids.New()
		assert.True(t, ids.Valid(next))
		assert.Less(t, prev, next, "los ULID deben crecer lexicográficamente")
		prev = next
	}
}

func TestValid_RechazaBasura(t *testing.T) {
	assert.False(t, ids.Valid("no-es-ulid"))
	assert.False(t, ids.Valid(""))
}
