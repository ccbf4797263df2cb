package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var (
	_ repository.JournalRepository      = (*JournalRepo)(nil)
	_ repository.FiscalPeriodRepository = (*FiscalPeriodRepo)(nil)
)

const journalColumns = `id, tenant_id, entry_number, sequence, entry_date, description, source_module,
	COALESCE(source_id, ''), status, total_debit, total_credit, posted_at, COALESCE(posted_by, ''),
	COALESCE(reversed_by_entry_id, ''), reversed_at, created_at`

var journalSort = map[string]string{
	"entry_number": "entry_number",
	"entry_date":   "entry_date",
	"created_at":   "created_at",
	"total_debit":  "total_debit",
}

// JournalRepo asientos (journal_entries) y sus líneas (journal_entry_lines).
type JournalRepo struct {
	q Querier
}

// NewJournalRepository construye el repositorio.
func NewJournalRepository(q Querier) *JournalRepo {
	return &JournalRepo{q: q}
}

// NextSequence incrementa journal_sequences con un upsert; la fila queda bloqueada hasta el
// commit, así que los números son monotónicos por (tenant, módulo). Un rollback deja hueco.
func (r *JournalRepo) NextSequence(ctx context.Context, tenantID, sourceModule string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO journal_sequences (tenant_id, source_module, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, source_module)
		DO UPDATE SET last_value = journal_sequences.last_value + 1
		RETURNING last_value`, tenantID, sourceModule,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next journal sequence: %w", err)
	}
	return n, nil
}

// Create inserta cabecera y líneas en un único batch.
func (r *JournalRepo) Create(ctx context.Context, e *entity.JournalEntry) error {
	b := &pgx.Batch{}
	b.Queue(`
		INSERT INTO journal_entries (id, tenant_id, entry_number, sequence, entry_date, description,
			source_module, source_id, status, total_debit, total_credit, posted_at, posted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.TenantID, e.EntryNumber, e.Sequence, e.EntryDate, e.Description,
		e.SourceModule, nullIfEmpty(e.SourceID), e.Status, e.TotalDebit, e.TotalCredit,
		e.PostedAt, nullIfEmpty(e.PostedBy), e.CreatedAt,
	)
	for _, l := range e.Lines {
		b.Queue(`
			INSERT INTO journal_entry_lines (id, tenant_id, journal_entry_id, line_number, account_id,
				description, debit_amount, credit_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, e.TenantID, e.ID, l.LineNumber, l.AccountID, l.Description, l.DebitAmount, l.CreditAmount,
		)
	}
	br := r.q.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if isUniqueViolation(err) {
				return domain.ErrConflict.WithDetails(map[string]any{"field": "entry_number", "value": e.EntryNumber})
			}
			return mapWriteErr("insert journal entry", err)
		}
	}
	if err := br.Close(); err != nil {
		return mapWriteErr("insert journal entry", err)
	}
	return nil
}

func (r *JournalRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error) {
	return r.get(ctx, tenantID, id, "")
}

// GetForUpdate bloquea la cabecera: dos reversiones del mismo asiento se serializan.
func (r *JournalRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error) {
	return r.get(ctx, tenantID, id, " FOR UPDATE")
}

func (r *JournalRepo) get(ctx context.Context, tenantID, id, lock string) (*entity.JournalEntry, error) {
	e, err := scanJournal(r.q.QueryRow(ctx,
		`SELECT `+journalColumns+` FROM journal_entries WHERE tenant_id = $1 AND id = $2`+lock, tenantID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	lines, err := r.lines(ctx, tenantID, []string{id})
	if err != nil {
		return nil, err
	}
	e.Lines = lines[id]
	return e, nil
}

func (r *JournalRepo) lines(ctx context.Context, tenantID string, entryIDs []string) (map[string][]entity.JournalEntryLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, journal_entry_id, line_number, account_id, description, debit_amount, credit_amount
		FROM journal_entry_lines
		WHERE tenant_id = $1 AND journal_entry_id = ANY($2)
		ORDER BY journal_entry_id, line_number`, tenantID, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("get journal lines: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]entity.JournalEntryLine, len(entryIDs))
	for rows.Next() {
		var l entity.JournalEntryLine
		if err := rows.Scan(&l.ID, &l.JournalEntryID, &l.LineNumber, &l.AccountID, &l.Description,
			&l.DebitAmount, &l.CreditAmount); err != nil {
			return nil, fmt.Errorf("scan journal line: %w", err)
		}
		out[l.JournalEntryID] = append(out[l.JournalEntryID], l)
	}
	return out, rows.Err()
}

// MarkReversed pasa un asiento posted a reversed. Cualquier otro estado => ErrPostingNotReversible.
func (r *JournalRepo) MarkReversed(ctx context.Context, tenantID, id, reversedBy string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE journal_entries SET status = $3, reversed_by_entry_id = $4, reversed_at = $5
		WHERE tenant_id = $1 AND id = $2 AND status = $6`,
		tenantID, id, entity.JournalStatusReversed, reversedBy, at, entity.JournalStatusPosted)
	if err != nil {
		return fmt.Errorf("mark reversed: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM journal_entries WHERE tenant_id = $1 AND id = $2)`, tenantID, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("mark reversed: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrPostingNotReversible
}

func (r *JournalRepo) List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.JournalEntry, int, error) {
	total, err := count(ctx, r.q, `SELECT COUNT(*) FROM journal_entries WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.q.Query(ctx, `SELECT `+journalColumns+` FROM journal_entries WHERE tenant_id = $1`+
		orderBy(q, journalSort, "entry_number", "id")+` LIMIT $2 OFFSET $3`,
		tenantID, q.Limit(), q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list journal entries: %w", err)
	}
	list, err := collectJournals(rows)
	if err != nil {
		return nil, 0, err
	}
	if len(list) == 0 {
		return list, total, nil
	}

	ids := make([]string, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}
	lines, err := r.lines(ctx, tenantID, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, e := range list {
		e.Lines = lines[e.ID]
	}
	return list, total, nil
}

func (r *JournalRepo) TotalsByAccount(ctx context.Context, tenantID string) ([]repository.AccountTotals, error) {
	rows, err := r.q.Query(ctx, `
		SELECT l.account_id, COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.id = l.journal_entry_id AND e.tenant_id = l.tenant_id
		WHERE l.tenant_id = $1 AND e.status IN ($2, $3)
		GROUP BY l.account_id
		ORDER BY l.account_id`, tenantID, entity.JournalStatusPosted, entity.JournalStatusReversed)
	if err != nil {
		return nil, fmt.Errorf("totals by account: %w", err)
	}
	defer rows.Close()

	var out []repository.AccountTotals
	for rows.Next() {
		var t repository.AccountTotals
		if err := rows.Scan(&t.AccountID, &t.Debit, &t.Credit); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func collectJournals(rows pgx.Rows) ([]*entity.JournalEntry, error) {
	defer rows.Close()
	var list []*entity.JournalEntry
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanJournal(row pgx.Row) (*entity.JournalEntry, error) {
	var e entity.JournalEntry
	err := row.Scan(&e.ID, &e.TenantID, &e.EntryNumber, &e.Sequence, &e.EntryDate, &e.Description,
		&e.SourceModule, &e.SourceID, &e.Status, &e.TotalDebit, &e.TotalCredit, &e.PostedAt, &e.PostedBy,
		&e.ReversedByEntryID, &e.ReversedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FiscalPeriodRepo periodos contables.
type FiscalPeriodRepo struct {
	q Querier
}

// NewFiscalPeriodRepository construye el repositorio.
func NewFiscalPeriodRepository(q Querier) *FiscalPeriodRepo {
	return &FiscalPeriodRepo{q: q}
}

func (r *FiscalPeriodRepo) FindClosed(ctx context.Context, tenantID string, date time.Time) (*entity.FiscalPeriod, error) {
	var p entity.FiscalPeriod
	err := r.q.QueryRow(ctx, `
		SELECT id, tenant_id, name, start_date, end_date, is_closed
		FROM fiscal_periods
		WHERE tenant_id = $1 AND is_closed = true AND $2::date BETWEEN start_date AND end_date
		ORDER BY start_date
		LIMIT 1`, tenantID, date,
	).Scan(&p.ID, &p.TenantID, &p.Name, &p.StartDate, &p.EndDate, &p.IsClosed)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find closed period: %w", err)
	}
	return &p, nil
}
