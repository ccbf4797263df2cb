package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/application/audit"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/idempotency"
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/pkg/ids"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// AccountSortFields columnas admitidas en sort_by para cuentas.
var AccountSortFields = []string{"account_code", "account_name", "account_type", "created_at"}

const (
	accountsCacheTTL = 5 * time.Minute
	// accountsGenKey generación vigente de las páginas cacheadas; InvalidateTenant la borra.
	accountsGenKey = "accounts:gen"
	accountsGenTTL = time.Hour
)

// AccountUseCase plan de cuentas del tenant.
type AccountUseCase struct {
	tx       ports.TxRunner
	reads    ports.Repos
	recorder *audit.Recorder
	cache    ports.TenantCache
	log      *logger.Logger
}

// NewAccountUseCase construye el caso de uso. cache puede ser nil.
func NewAccountUseCase(tx ports.TxRunner, reads ports.Repos, recorder *audit.Recorder, cache ports.TenantCache, log *logger.Logger) *AccountUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AccountUseCase{tx: tx, reads: reads, recorder: recorder, cache: cache, log: log}
}

// Create crea una cuenta. Código repetido en el tenant => CONFLICT.
func (uc *AccountUseCase) Create(ctx context.Context, scope entity.RequestScope, in dto.CreateAccountRequest, pending *idempotency.Pending) (*dto.AccountResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	now := time.Now()
	acct := &entity.Account{
		ID:             uuid.NewString(),
		TenantID:       scope.TenantID,
		Code:           in.Code,
		Name:           strings.TrimSpace(in.Name),
		Type:           entity.AccountType(in.Type),
		ParentID:       in.ParentID,
		IsActive:       true,
		CurrentBalance: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	var out dto.AccountResponse
	err := uc.tx.Run(ctx, func(tx ports.Repos) error {
		if acct.ParentID != nil {
			parent, err := tx.Accounts.GetByID(ctx, scope.TenantID, *acct.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return domain.ErrValidation.WithDetails(map[string]any{"field": "parent_id", "reason": "no existe"})
			}
		}
		if err := tx.Accounts.Create(ctx, acct); err != nil {
			return err
		}
		if err := uc.recorder.Log(ctx, tx.Audit, scope, audit.Event{
			EntityType: entity.EntityAccount,
			EntityID:   acct.ID,
			EventType:  entity.AuditCreate,
			Metadata:   map[string]any{"account_code": acct.Code, "account_type": string(acct.Type)},
		}); err != nil {
			return err
		}
		out = dto.AccountFromEntity(acct)
		return pending.Store(ctx, tx.Idempotency, out)
	})
	if err != nil {
		pending.Reset()
		return nil, err
	}
	uc.invalidate(ctx, scope.TenantID)
	return &out, nil
}

// List lista cuentas; la página se cachea por tenant hasta la próxima contabilización.
func (uc *AccountUseCase) List(ctx context.Context, scope entity.RequestScope, q entity.PageQuery) (*dto.AccountPage, error) {
	gen, cached := uc.generation(ctx, scope.TenantID)
	key := fmt.Sprintf("accounts:%s:%d:%d:%s:%s", gen, q.Page, q.Limit(), q.SortBy, q.SortOrder)
	if cached {
		if raw, ok, err := uc.cache.Get(ctx, scope.TenantID, key); err == nil && ok {
			var page dto.AccountPage
			if json.Unmarshal(raw, &page) == nil {
				return &page, nil
			}
		}
	}
	list, total, err := uc.reads.Accounts.List(ctx, scope.TenantID, q)
	if err != nil {
		return nil, err
	}
	page := &dto.AccountPage{Items: make([]dto.AccountResponse, 0, len(list)), Total: total}
	for _, a := range list {
		page.Items = append(page.Items, dto.AccountFromEntity(a))
	}
	// una invalidación durante la lectura borró gen: esta página queda huérfana y expira sola
	if cached {
		if raw, err := json.Marshal(page); err == nil {
			if err := uc.cache.Set(ctx, scope.TenantID, key, raw, accountsCacheTTL); err != nil {
				uc.log.Warn().Err(err).Str(logger.FieldTenantID, scope.TenantID).Msg("no se pudo escribir caché de cuentas")
			}
		}
	}
	return page, nil
}

// generation devuelve la generación de caché del tenant, creándola si no existe.
// false = caché deshabilitada o no disponible.
func (uc *AccountUseCase) generation(ctx context.Context, tenantID string) (string, bool) {
	if uc.cache == nil {
		return "", false
	}
	raw, ok, err := uc.cache.Get(ctx, tenantID, accountsGenKey)
	if err != nil {
		return "", false
	}
	if ok {
		return string(raw), true
	}
	gen := ids.New()
	if err := uc.cache.Set(ctx, tenantID, accountsGenKey, []byte(gen), accountsGenTTL); err != nil {
		uc.log.Warn().Err(err).Str(logger.FieldTenantID, tenantID).Msg("no se pudo escribir caché de cuentas")
		return "", false
	}
	return gen, true
}

func (uc *AccountUseCase) invalidate(ctx context.Context, tenantID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.InvalidateTenant(ctx, tenantID); err != nil {
		uc.log.Warn().Err(err).Str(logger.FieldTenantID, tenantID).Msg("no se pudo invalidar caché del tenant")
	}
}
