// Package ids genera identificadores ordenables (ULID) para trazas y errores.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New devuelve un ULID monotónico en texto (26 caracteres).
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Valid indica si s es un ULID bien formado.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
