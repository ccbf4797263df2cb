package idempotency

import (
	"context"
	"time"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// Pending clave reservada para la petición en curso. El caso de uso la guarda con el
// repositorio de su transacción, de modo que el commit del negocio y el registro son atómicos.
// Un *Pending nil significa que la petición no trae Idempotency-Key.
type Pending struct {
	TenantID    string
	Key         string
	Endpoint    string
	RequestHash string
	// Status código HTTP de éxito que devolverá el handler.
	Status int

	saved bool
	body  []byte
	now   func() time.Time
}

// Store renderiza el sobre de éxito de data y lo guarda con repo (atado a la tx del negocio).
func (p *Pending) Store(ctx context.Context, repo repository.IdempotencyRepository, data any) error {
	if p == nil {
		return nil
	}
	body, err := dto.Render(data)
	if err != nil {
		return err
	}
	return p.Save(ctx, repo, p.Status, body)
}

// Save persiste status y body exactos.
func (p *Pending) Save(ctx context.Context, repo repository.IdempotencyRepository, status int, body []byte) error {
	if p == nil {
		return nil
	}
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	rec := &entity.IdempotencyRecord{
		TenantID:     p.TenantID,
		Key:          p.Key,
		Endpoint:     p.Endpoint,
		RequestHash:  p.RequestHash,
		ResponseBody: body,
		StatusCode:   status,
		CreatedAt:    now(),
	}
	if err := repo.Create(ctx, rec); err != nil {
		return err
	}
	p.saved = true
	p.body = body
	return nil
}

// Saved indica si ya se guardó dentro de la transacción.
func (p *Pending) Saved() bool { return p != nil && p.saved }

// Response cuerpo exacto guardado; el handler lo envía tal cual.
func (p *Pending) Response() (int, []byte) {
	return p.Status, p.body
}

// Reset descarta un guardado cuya transacción hizo rollback.
func (p *Pending) Reset() {
	if p != nil {
		p.saved = false
		p.body = nil
	}
}
