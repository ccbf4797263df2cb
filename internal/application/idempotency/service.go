// Package idempotency almacena respuestas por Idempotency-Key para que los reintentos
// devuelvan exactamente la misma respuesta sin repetir el cambio de estado.
package idempotency

import (
	"context"
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// MaxKeyLength longitud máxima de Idempotency-Key.
const MaxKeyLength = 255

// Outcome resultado de Lookup.
type Outcome int

const (
	NotFound Outcome = iota
	Replay
	Mismatch
)

// Service lookup, guardado post-commit, guardas en vuelo y purga por retención.
type Service struct {
	repo      repository.IdempotencyRepository
	guard     ports.InFlightGuard
	retention time.Duration
	log       *logger.Logger
	now       func() time.Time
}

// NewService construye el servicio. guard puede ser nil (sin protección en vuelo).
func NewService(repo repository.IdempotencyRepository, guard ports.InFlightGuard, retention time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, guard: guard, retention: retention, log: log, now: time.Now}
}

// ValidateKey verifica la clave enviada por el cliente.
func ValidateKey(key string) error {
	if len(key) > MaxKeyLength {
		return domain.ErrValidation.WithDetails(map[string]any{"field": "Idempotency-Key", "reason": "máximo 255 caracteres"})
	}
	return nil
}

// Lookup busca la clave en el tenant. Replay: mismo endpoint y hash; Mismatch: la clave
// existe con otro endpoint o payload.
func (s *Service) Lookup(ctx context.Context, tenantID, key, endpoint string, payload []byte) (*entity.IdempotencyRecord, Outcome, error) {
	rec, err := s.repo.Get(ctx, tenantID, key)
	if err != nil {
		return nil, NotFound, err
	}
	if rec == nil {
		return nil, NotFound, nil
	}
	if rec.Endpoint != endpoint || rec.RequestHash != Hash(payload) {
		return rec, Mismatch, nil
	}
	return rec, Replay, nil
}

// Begin prepara el Pending que viaja hasta el caso de uso.
func (s *Service) Begin(tenantID, key, endpoint string, payload []byte) *Pending {
	return &Pending{TenantID: tenantID, Key: key, Endpoint: endpoint, RequestHash: Hash(payload), now: s.now}
}

// Acquire toma la guarda en vuelo. false = otra petición con la misma clave está en curso.
func (s *Service) Acquire(ctx context.Context, tenantID, key string) (bool, error) {
	if s.guard == nil {
		return true, nil
	}
	return s.guard.Acquire(ctx, tenantID, key, 30*time.Second)
}

// Release libera la guarda en vuelo.
func (s *Service) Release(ctx context.Context, tenantID, key string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Release(ctx, tenantID, key); err != nil {
		s.log.Warn().Err(err).Str(logger.FieldTenantID, tenantID).Msg("no se pudo liberar guarda de idempotencia")
	}
}

// SaveAfterCommit guarda la respuesta cuando el caso de uso no la guardó dentro de su transacción.
// Un conflicto de clave significa que ya existe un registro y se ignora.
func (s *Service) SaveAfterCommit(ctx context.Context, p *Pending, status int, body []byte) error {
	if p == nil || p.Saved() {
		return nil
	}
	err := p.Save(ctx, s.repo, status, body)
	if err != nil && domain.CodeOf(err) == domain.CodeConflict {
		return nil
	}
	return err
}

// Purge elimina registros más antiguos que la retención.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, s.now().Add(-s.retention))
}

// RunJanitor purga periódicamente hasta que ctx se cancela.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Purge(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("purga de idempotencia falló")
				continue
			}
			if n > 0 {
				s.log.Info().Int64("deleted", n).Msg("registros de idempotencia purgados")
			}
		}
	}
}
