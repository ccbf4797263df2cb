package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Contabilidad-api/pkg/ids"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

const maxTraceIDLength = 128

// MetricsRecorder registra una petición terminada.
type MetricsRecorder interface {
	Record(domain, method string, status int, d time.Duration)
}

// TraceMiddleware acepta X-Trace-Id, luego el trace-id de traceparent; si no hay ninguno
// genera un ULID. Siempre lo devuelve en X-Trace-Id.
func TraceMiddleware(log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		traceID := inboundTraceID(c.Get(HeaderTraceID), c.Get(HeaderTraceParent))
		c.Locals(LocalTraceID, traceID)
		c.Locals(LocalLogger, log.WithTrace(traceID, ""))
		c.Set(HeaderTraceID, traceID)
		return c.Next()
	}
}

func inboundTraceID(header, traceparent string) string {
	if id := strings.TrimSpace(header); id != "" && len(id) <= maxTraceIDLength && printable(id) {
		return id
	}
	// version-traceid-parentid-flags
	parts := strings.Split(strings.TrimSpace(traceparent), "-")
	if len(parts) == 4 && len(parts[1]) == 32 && isHex(parts[1]) && parts[1] != strings.Repeat("0", 32) {
		return strings.ToLower(parts[1])
	}
	return ids.New()
}

func printable(s string) bool {
	for _, r := range s {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// ObserveMiddleware va justo después de TraceMiddleware: resuelve el error de la cadena con el
// ErrorHandler de la app para conocer el status final, registra métricas, escribe una línea de
// log por petición y fija X-Process-Time.
func ObserveMiddleware(rec MetricsRecorder, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		c.Set(HeaderProcessTime, fmt.Sprintf("%.6f", elapsed.Seconds()))

		domain := metrics.Classify(c.Method(), c.Path())
		if rec != nil {
			rec.Record(domain, c.Method(), status, elapsed)
		}

		l := RequestLogger(c, log)
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Str("domain", domain).
			Dur("latency", elapsed).
			Str("ip", c.IP()).
			Msg("petición atendida")
		return nil
	}
}
