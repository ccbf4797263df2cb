package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// maxCanonicalExponent exponente a partir del cual un número no se normaliza.
const maxCanonicalExponent = 64

// Hash sha-256 hex del JSON normalizado. Un cuerpo que no es JSON se hashea tal cual.
func Hash(payload []byte) string {
	canon, err := Canonicalize(payload)
	if err != nil {
		canon = payload
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:])
}

// Canonicalize reescribe JSON con claves ordenadas, sin espacios y con números en forma
// decimal canónica ("1.0", "1.00" y "1" quedan iguales).
func Canonicalize(payload []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return []byte{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("idempotency: contenido extra tras el JSON")
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return err
		}
		// un exponente extremo se escribe tal cual: normalizarlo exige reescalar
		if e := d.Exponent(); e < -maxCanonicalExponent || e > maxCanonicalExponent {
			buf.WriteString(t.String())
			return nil
		}
		buf.WriteString(d.String())
	case string:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("idempotency: tipo JSON inesperado %T", v)
	}
	return nil
}
