package fieldcrypt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/pkg/fieldcrypt"
)

const key = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestCipher_RoundTrip(t *testing.T) {
	c, err := fieldcrypt.New(key)
	require.NoError(t, err)

	enc, err := c.Encrypt("ES9121000418450200051332")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(enc, "enc:v1:"))
	assert.NotContains(t, enc, "0418450200051332")

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "ES9121000418450200051332", plain)
}

func TestCipher_NonceAleatorio(t *testing.T) {
	c, err := fieldcrypt.New(key)
	require.NoError(t, err)
	a, _ := c.Encrypt("x")
	b, _ := c.Encrypt("x")
	assert.NotEqual(t, a, b)
}

func TestCipher_ClaveIncorrecta(t *testing.T) {
	c, _ := fieldcrypt.New(key)
	enc, _ := c.Encrypt("secreto")

	other, err := fieldcrypt.New(strings.Repeat("ab", 32))
	require.NoError(t, err)
	_, err = other.Decrypt(enc)
	assert.ErrorIs(t, err, fieldcrypt.ErrDecrypt)
}

func TestNew_ClaveInvalida(t *testing.T) {
	_, err := fieldcrypt.New("abcd")
	assert.Error(t, err)
	_, err = fieldcrypt.New("zz")
	assert.Error(t, err)
}

func TestCipher_SinClaveEsPassthrough(t *testing.T) {
	c, err := fieldcrypt.New("")
	require.NoError(t, err)
	enc, err := c.Encrypt("claro")
	require.NoError(t, err)
	assert.Equal(t, "claro", enc)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****5678", fieldcrypt.Mask("12345678"))
	assert.Equal(t, "123", fieldcrypt.Mask("123"))
}
