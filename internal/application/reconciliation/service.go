// Package reconciliation recalcula saldos desde las líneas contabilizadas y reporta diferencias.
package reconciliation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/ledger"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// JobName nombre del job en las métricas.
const JobName = "reconciliation"

const pageSize = entity.MaxPageSize

// JobRecorder registra la ejecución del job (métricas RED de jobs).
type JobRecorder interface {
	RecordJob(name string, d time.Duration, failed bool)
}

// Service job de conciliación por tenant.
type Service struct {
	reads   ports.ReadTxRunner
	metrics JobRecorder
	log     *logger.Logger
}

// NewService construye el servicio sobre el almacenamiento de lectura. metrics puede ser nil.
func NewService(reads ports.ReadTxRunner, metrics JobRecorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{reads: reads, metrics: metrics, log: log}
}

// Run compara current_balance de cada cuenta con la suma de deltas firmados de sus líneas.
// Revisa ctx entre páginas de cuentas; una cancelación devuelve ctx.Err().
func (s *Service) Run(ctx context.Context, scope entity.RequestScope) (res *dto.ReconciliationResponse, err error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordJob(JobName, time.Since(start), err != nil || (res != nil && !res.Balanced))
		}
	}()

	err = s.reads.ReadOnly(ctx, func(r ports.Repos) error {
		var cerr error
		res, cerr = s.compare(ctx, r, scope.TenantID)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	res.Balanced = len(res.Mismatches) == 0
	if !res.Balanced {
		s.log.Warn().Str(logger.FieldTraceID, scope.TraceID).Str(logger.FieldTenantID, scope.TenantID).
			Int("mismatches", len(res.Mismatches)).Msg("conciliación con diferencias")
	}
	return res, nil
}

// compare corre dentro de una sola foto: totales de líneas y saldos guardados son del mismo instante.
func (s *Service) compare(ctx context.Context, r ports.Repos, tenantID string) (*dto.ReconciliationResponse, error) {
	totals, err := r.Journals.TotalsByAccount(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byAccount := make(map[string][2]decimal.Decimal, len(totals))
	for _, t := range totals {
		byAccount[t.AccountID] = [2]decimal.Decimal{t.Debit, t.Credit}
	}

	res := &dto.ReconciliationResponse{Mismatches: []dto.ReconciliationMismatch{}}
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		accounts, total, err := r.Accounts.List(ctx, tenantID, entity.PageQuery{
			Page: page, PageSize: pageSize, SortBy: "account_code", SortOrder: "asc",
		})
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			sums := byAccount[a.ID]
			computed := ledger.SignedDelta(a.Type, sums[0], sums[1])
			if !computed.Equal(a.CurrentBalance) {
				res.Mismatches = append(res.Mismatches, dto.ReconciliationMismatch{
					AccountID: a.ID,
					Code:      a.Code,
					Stored:    dto.Money(a.CurrentBalance),
					Computed:  dto.Money(computed),
				})
			}
		}
		res.AccountsChecked += len(accounts)
		if len(accounts) < pageSize || res.AccountsChecked >= total {
			break
		}
	}
	return res, nil
}
