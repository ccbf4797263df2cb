package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository      = (*companyRepo)(nil)
	_ repository.UserRepository         = (*userRepo)(nil)
	_ repository.RefreshTokenRepository = (*tokenRepo)(nil)
	_ repository.IdempotencyRepository  = (*idempotencyRepo)(nil)
	_ repository.AuditRepository        = (*auditRepo)(nil)
	_ repository.AccountRepository      = (*accountRepo)(nil)
	_ repository.JournalRepository      = (*journalRepo)(nil)
	_ repository.FiscalPeriodRepository = (*periodRepo)(nil)
	_ repository.PaymentRepository      = (*paymentRepo)(nil)
	_ repository.ReceiptRepository      = (*receiptRepo)(nil)
)

func page[T any](items []T, q entity.PageQuery) []T {
	off := q.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := off + q.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[off:end]
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// ---- companies ----

type companyRepo struct{ base }

func (r *companyRepo) Create(ctx context.Context, c *entity.Company) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.companies[c.TenantID]; ok {
			return domain.ErrConflict.WithDetails(map[string]any{"tenant_id": c.TenantID})
		}
		v := *c
		v.Modules = cloneStrings(c.Modules)
		st.companies[c.TenantID] = v
		return nil
	})
}

func (r *companyRepo) GetByTenantID(ctx context.Context, tenantID string) (*entity.Company, error) {
	var out *entity.Company
	err := r.read(ctx, func(st *state) error {
		if c, ok := st.companies[tenantID]; ok {
			c.Modules = cloneStrings(c.Modules)
			out = &c
		}
		return nil
	})
	return out, err
}

// ---- users ----

type userRepo struct{ base }

func copyUser(u entity.User) *entity.User {
	u.Roles = cloneStrings(u.Roles)
	if u.LockedUntil != nil {
		t := *u.LockedUntil
		u.LockedUntil = &t
	}
	return &u
}

func (r *userRepo) Create(ctx context.Context, u *entity.User) error {
	return r.write(ctx, func(st *state) error {
		for _, e := range st.users {
			if e.TenantID == u.TenantID && e.Email == u.Email {
				return domain.ErrConflict.WithDetails(map[string]any{"field": "email"})
			}
		}
		st.users[u.ID] = *copyUser(*u)
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.User, error) {
	var out *entity.User
	err := r.read(ctx, func(st *state) error {
		if u, ok := st.users[id]; ok && u.TenantID == tenantID {
			out = copyUser(u)
		}
		return nil
	})
	return out, err
}

func (r *userRepo) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.User, error) {
	var out []*entity.User
	err := r.read(ctx, func(st *state) error {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if u, ok := st.users[id]; ok && u.TenantID == tenantID {
				out = append(out, copyUser(u))
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) FindByEmail(ctx context.Context, tenantID, email string) (*entity.User, error) {
	var out *entity.User
	err := r.read(ctx, func(st *state) error {
		var match []entity.User
		for _, u := range st.users {
			if u.Email == email && (tenantID == "" || u.TenantID == tenantID) {
				match = append(match, u)
			}
		}
		// sin tenant y con el email repetido entre tenants no se elige ninguno
		if len(match) == 1 {
			out = copyUser(match[0])
		}
		return nil
	})
	return out, err
}

func (r *userRepo) RecordFailedLogin(ctx context.Context, tenantID, userID string, attempts int, lockedUntil *time.Time) error {
	return r.write(ctx, func(st *state) error {
		u, ok := st.users[userID]
		if !ok || u.TenantID != tenantID {
			return nil
		}
		u.FailedAttempts = attempts
		u.LockedUntil = lockedUntil
		st.users[userID] = *copyUser(u)
		return nil
	})
}

func (r *userRepo) ResetFailedLogins(ctx context.Context, tenantID, userID string) error {
	return r.RecordFailedLogin(ctx, tenantID, userID, 0, nil)
}

// ---- refresh tokens ----

type tokenRepo struct{ base }

func copyToken(t entity.RefreshToken) *entity.RefreshToken {
	if t.RevokedAt != nil {
		v := *t.RevokedAt
		t.RevokedAt = &v
	}
	return &t
}

func (r *tokenRepo) Create(ctx context.Context, t *entity.RefreshToken) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.tokens[t.TokenHash]; ok {
			return domain.ErrConflict
		}
		st.tokens[t.TokenHash] = *copyToken(*t)
		return nil
	})
}

func (r *tokenRepo) GetForUpdate(ctx context.Context, hash string) (*entity.RefreshToken, error) {
	var out *entity.RefreshToken
	err := r.read(ctx, func(st *state) error {
		if t, ok := st.tokens[hash]; ok {
			out = copyToken(t)
		}
		return nil
	})
	return out, err
}

func (r *tokenRepo) Revoke(ctx context.Context, hash string, at time.Time, replacedBy string) (bool, error) {
	var ok bool
	err := r.write(ctx, func(st *state) error {
		t, found := st.tokens[hash]
		if !found || t.RevokedAt != nil {
			return nil
		}
		t.RevokedAt = &at
		t.ReplacedByToken = replacedBy
		st.tokens[hash] = t
		ok = true
		return nil
	})
	return ok, err
}

func (r *tokenRepo) RevokeFamily(ctx context.Context, familyID string, at time.Time) (int64, error) {
	var n int64
	err := r.write(ctx, func(st *state) error {
		for h, t := range st.tokens {
			if t.FamilyID == familyID && t.RevokedAt == nil {
				t.RevokedAt = &at
				st.tokens[h] = t
				n++
			}
		}
		return nil
	})
	return n, err
}

// ---- idempotency ----

type idempotencyRepo struct{ base }

func idemKey(tenantID, key string) string { return tenantID + "\x00" + key }

func (r *idempotencyRepo) Get(ctx context.Context, tenantID, key string) (*entity.IdempotencyRecord, error) {
	var out *entity.IdempotencyRecord
	err := r.read(ctx, func(st *state) error {
		if rec, ok := st.idem[idemKey(tenantID, key)]; ok {
			rec.ResponseBody = append([]byte(nil), rec.ResponseBody...)
			out = &rec
		}
		return nil
	})
	return out, err
}

func (r *idempotencyRepo) Create(ctx context.Context, rec *entity.IdempotencyRecord) error {
	return r.write(ctx, func(st *state) error {
		k := idemKey(rec.TenantID, rec.Key)
		if _, ok := st.idem[k]; ok {
			return domain.ErrConflict.WithMessage("Idempotency-Key ya registrada")
		}
		v := *rec
		v.ResponseBody = append([]byte(nil), rec.ResponseBody...)
		st.idem[k] = v
		return nil
	})
}

func (r *idempotencyRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.write(ctx, func(st *state) error {
		for k, rec := range st.idem {
			if rec.CreatedAt.Before(cutoff) {
				delete(st.idem, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

// ---- audit ----

type auditRepo struct{ base }

func (r *auditRepo) Append(ctx context.Context, ev *entity.AuditEvent) error {
	return r.write(ctx, func(st *state) error {
		if r.s.auditErr != nil {
			return r.s.auditErr
		}
		st.audit = append(st.audit, *ev)
		return nil
	})
}

func (r *auditRepo) List(ctx context.Context, tenantID string, f repository.AuditFilter, q entity.PageQuery) ([]*entity.AuditEvent, int, error) {
	var out []*entity.AuditEvent
	var total int
	err := r.read(ctx, func(st *state) error {
		var match []*entity.AuditEvent
		// más recientes primero
		for i := len(st.audit) - 1; i >= 0; i-- {
			e := st.audit[i]
			if e.TenantID != tenantID {
				continue
			}
			if f.EntityType != "" && e.EntityType != f.EntityType {
				continue
			}
			if f.EntityID != "" && e.EntityID != f.EntityID {
				continue
			}
			match = append(match, &e)
		}
		total = len(match)
		out = page(match, q)
		return nil
	})
	return out, total, err
}

// ---- accounts ----

type accountRepo struct{ base }

func copyAccount(a entity.Account) *entity.Account {
	if a.ParentID != nil {
		p := *a.ParentID
		a.ParentID = &p
	}
	return &a
}

func (r *accountRepo) Create(ctx context.Context, a *entity.Account) error {
	return r.write(ctx, func(st *state) error {
		for _, e := range st.accounts {
			if e.TenantID == a.TenantID && e.Code == a.Code {
				return domain.ErrConflict.WithDetails(map[string]any{"field": "account_code", "value": a.Code})
			}
		}
		st.accounts[a.ID] = *copyAccount(*a)
		return nil
	})
}

func (r *accountRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Account, error) {
	var out *entity.Account
	err := r.read(ctx, func(st *state) error {
		if a, ok := st.accounts[id]; ok && a.TenantID == tenantID {
			out = copyAccount(a)
		}
		return nil
	})
	return out, err
}

func (r *accountRepo) GetByCode(ctx context.Context, tenantID, code string) (*entity.Account, error) {
	var out *entity.Account
	err := r.read(ctx, func(st *state) error {
		for _, a := range st.accounts {
			if a.TenantID == tenantID && a.Code == code {
				out = copyAccount(a)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *accountRepo) List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.Account, int, error) {
	var out []*entity.Account
	var total int
	err := r.read(ctx, func(st *state) error {
		var match []*entity.Account
		for _, a := range st.accounts {
			if a.TenantID == tenantID {
				match = append(match, copyAccount(a))
			}
		}
		sort.SliceStable(match, func(i, j int) bool {
			return lessBy(q, accountKey(q.SortBy, match[i]), accountKey(q.SortBy, match[j]))
		})
		total = len(match)
		out = page(match, q)
		return nil
	})
	return out, total, err
}

func accountKey(sortBy string, a *entity.Account) string {
	switch sortBy {
	case "account_name":
		return strings.ToLower(a.Name)
	case "account_type":
		return string(a.Type)
	case "created_at":
		return timeKey(a.CreatedAt)
	default:
		return a.Code
	}
}

func (r *accountRepo) LockForPosting(ctx context.Context, tenantID string, ids []string) ([]*entity.Account, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	var out []*entity.Account
	err := r.read(ctx, func(st *state) error {
		for _, id := range sorted {
			if a, ok := st.accounts[id]; ok && a.TenantID == tenantID {
				out = append(out, copyAccount(a))
			}
		}
		return nil
	})
	return out, err
}

func (r *accountRepo) UpdateBalance(ctx context.Context, tenantID, id string, balance decimal.Decimal) error {
	return r.write(ctx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok || a.TenantID != tenantID {
			return domain.ErrNotFound
		}
		a.CurrentBalance = balance
		a.UpdatedAt = time.Now()
		st.accounts[id] = a
		return nil
	})
}

// ---- journals ----

type journalRepo struct{ base }

func copyEntry(e entity.JournalEntry) *entity.JournalEntry {
	e.Lines = append([]entity.JournalEntryLine(nil), e.Lines...)
	return &e
}

func (r *journalRepo) NextSequence(ctx context.Context, tenantID, module string) (int64, error) {
	var n int64
	err := r.write(ctx, func(st *state) error {
		k := tenantID + "\x00" + module
		st.sequences[k]++
		n = st.sequences[k]
		return nil
	})
	return n, err
}

func (r *journalRepo) Create(ctx context.Context, e *entity.JournalEntry) error {
	return r.write(ctx, func(st *state) error {
		for _, id := range st.journalOrder {
			if x := st.journals[id]; x.TenantID == e.TenantID && x.EntryNumber == e.EntryNumber {
				return domain.ErrConflict.WithDetails(map[string]any{"field": "entry_number"})
			}
		}
		st.journals[e.ID] = *copyEntry(*e)
		st.journalOrder = append(st.journalOrder, e.ID)
		return nil
	})
}

func (r *journalRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error) {
	var out *entity.JournalEntry
	err := r.read(ctx, func(st *state) error {
		if e, ok := st.journals[id]; ok && e.TenantID == tenantID {
			out = copyEntry(e)
		}
		return nil
	})
	return out, err
}

func (r *journalRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *journalRepo) MarkReversed(ctx context.Context, tenantID, id, reversedBy string, at time.Time) error {
	return r.write(ctx, func(st *state) error {
		e, ok := st.journals[id]
		if !ok || e.TenantID != tenantID {
			return domain.ErrNotFound
		}
		if e.Status != entity.JournalStatusPosted {
			return domain.ErrPostingNotReversible
		}
		e.Status = entity.JournalStatusReversed
		e.ReversedByEntryID = reversedBy
		e.ReversedAt = &at
		st.journals[id] = e
		return nil
	})
}

func (r *journalRepo) List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.JournalEntry, int, error) {
	var out []*entity.JournalEntry
	var total int
	err := r.read(ctx, func(st *state) error {
		var match []*entity.JournalEntry
		for _, id := range st.journalOrder {
			if e := st.journals[id]; e.TenantID == tenantID {
				match = append(match, copyEntry(e))
			}
		}
		sort.SliceStable(match, func(i, j int) bool {
			return lessBy(q, journalKey(q.SortBy, match[i]), journalKey(q.SortBy, match[j]))
		})
		total = len(match)
		out = page(match, q)
		return nil
	})
	return out, total, err
}

func journalKey(sortBy string, e *entity.JournalEntry) string {
	switch sortBy {
	case "entry_date":
		return e.EntryDate.Format(time.DateOnly)
	case "created_at":
		return timeKey(e.CreatedAt)
	case "total_debit":
		return decimalKey(e.TotalDebit)
	default:
		return e.EntryNumber
	}
}

func (r *journalRepo) TotalsByAccount(ctx context.Context, tenantID string) ([]repository.AccountTotals, error) {
	var out []repository.AccountTotals
	err := r.read(ctx, func(st *state) error {
		sums := make(map[string]*repository.AccountTotals)
		for _, id := range st.journalOrder {
			e := st.journals[id]
			if e.TenantID != tenantID || e.Status == entity.JournalStatusDraft {
				continue
			}
			for _, l := range e.Lines {
				t, ok := sums[l.AccountID]
				if !ok {
					t = &repository.AccountTotals{AccountID: l.AccountID, Debit: decimal.Zero, Credit: decimal.Zero}
					sums[l.AccountID] = t
				}
				t.Debit = t.Debit.Add(l.DebitAmount)
				t.Credit = t.Credit.Add(l.CreditAmount)
			}
		}
		for _, t := range sums {
			out = append(out, *t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
		return nil
	})
	return out, err
}

// ---- fiscal periods ----

type periodRepo struct{ base }

func (r *periodRepo) FindClosed(ctx context.Context, tenantID string, date time.Time) (*entity.FiscalPeriod, error) {
	var out *entity.FiscalPeriod
	err := r.read(ctx, func(st *state) error {
		for _, p := range st.periods {
			if p.TenantID == tenantID && p.IsClosed && p.Contains(date) {
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

// ---- payments / receipts ----

type paymentRepo struct{ base }

func (r *paymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.payments[p.ID]; ok {
			return domain.ErrConflict
		}
		st.payments[p.ID] = *p
		st.paymentOrder = append(st.paymentOrder, p.ID)
		return nil
	})
}

func (r *paymentRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Payment, error) {
	var out *entity.Payment
	err := r.read(ctx, func(st *state) error {
		if p, ok := st.payments[id]; ok && p.TenantID == tenantID {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *paymentRepo) List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.Payment, int, error) {
	var out []*entity.Payment
	var total int
	err := r.read(ctx, func(st *state) error {
		var match []*entity.Payment
		for _, id := range st.paymentOrder {
			if p := st.payments[id]; p.TenantID == tenantID {
				match = append(match, &p)
			}
		}
		sort.SliceStable(match, func(i, j int) bool {
			return lessBy(q, paymentKey(q.SortBy, match[i]), paymentKey(q.SortBy, match[j]))
		})
		total = len(match)
		out = page(match, q)
		return nil
	})
	return out, total, err
}

func paymentKey(sortBy string, p *entity.Payment) string {
	switch sortBy {
	case "amount":
		return decimalKey(p.Amount)
	case "vendor_name":
		return strings.ToLower(p.VendorName)
	case "created_at":
		return timeKey(p.CreatedAt)
	default:
		return p.PaymentDate.Format(time.DateOnly)
	}
}

type receiptRepo struct{ base }

func (r *receiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.receipts[rc.ID]; ok {
			return domain.ErrConflict
		}
		st.receipts[rc.ID] = *rc
		st.receiptOrder = append(st.receiptOrder, rc.ID)
		return nil
	})
}

func (r *receiptRepo) List(ctx context.Context, tenantID string, q entity.PageQuery) ([]*entity.Receipt, int, error) {
	var out []*entity.Receipt
	var total int
	err := r.read(ctx, func(st *state) error {
		var match []*entity.Receipt
		for _, id := range st.receiptOrder {
			if rc := st.receipts[id]; rc.TenantID == tenantID {
				match = append(match, &rc)
			}
		}
		sort.SliceStable(match, func(i, j int) bool {
			return lessBy(q, receiptKey(q.SortBy, match[i]), receiptKey(q.SortBy, match[j]))
		})
		total = len(match)
		out = page(match, q)
		return nil
	})
	return out, total, err
}

func receiptKey(sortBy string, r *entity.Receipt) string {
	switch sortBy {
	case "amount":
		return decimalKey(r.Amount)
	case "customer_name":
		return strings.ToLower(r.CustomerName)
	case "created_at":
		return timeKey(r.CreatedAt)
	default:
		return r.ReceiptDate.Format(time.DateOnly)
	}
}

func lessBy(q entity.PageQuery, a, b string) bool {
	if q.Desc() {
		return a > b
	}
	return a < b
}

// decimalKey clave ordenable lexicográficamente para montos no negativos.
func decimalKey(d decimal.Decimal) string {
	s := d.StringFixed(2)
	return strings.Repeat("0", 20-len(s)) + s
}

func timeKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000")
}
