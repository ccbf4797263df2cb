// Package memory implementa todos los puertos de persistencia en proceso.
// Se usa en tests y con STORAGE_DRIVER=memory fuera de producción.
//
// Las transacciones se serializan con un lock global y hacen rollback restaurando
// una copia del estado tomada al inicio.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

var (
	_ ports.TxRunner     = (*Store)(nil)
	_ ports.ReadTxRunner = (*Store)(nil)
)

// Store estado completo de la base en memoria.
type Store struct {
	txMu sync.Mutex // serializa transacciones y escrituras fuera de tx
	mu   sync.Mutex // protege st
	st   *state

	auditErr error
}

type state struct {
	companies    map[string]entity.Company // por tenant_id
	users        map[string]entity.User
	tokens       map[string]entity.RefreshToken // por hash
	idem         map[string]entity.IdempotencyRecord
	audit        []entity.AuditEvent
	accounts     map[string]entity.Account
	journals     map[string]entity.JournalEntry
	journalOrder []string
	sequences    map[string]int64
	periods      []entity.FiscalPeriod
	payments     map[string]entity.Payment
	paymentOrder []string
	receipts     map[string]entity.Receipt
	receiptOrder []string
}

func newState() *state {
	return &state{
		companies: make(map[string]entity.Company),
		users:     make(map[string]entity.User),
		tokens:    make(map[string]entity.RefreshToken),
		idem:      make(map[string]entity.IdempotencyRecord),
		accounts:  make(map[string]entity.Account),
		journals:  make(map[string]entity.JournalEntry),
		sequences: make(map[string]int64),
		payments:  make(map[string]entity.Payment),
		receipts:  make(map[string]entity.Receipt),
	}
}

// clone copia profunda suficiente para rollback: los valores se guardan por valor y los
// slices internos (roles, líneas) no se mutan nunca in situ.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.idem {
		c.idem[k] = v
	}
	c.audit = append([]entity.AuditEvent(nil), s.audit...)
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.journals {
		c.journals[k] = v
	}
	c.journalOrder = append([]string(nil), s.journalOrder...)
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	c.periods = append([]entity.FiscalPeriod(nil), s.periods...)
	for k, v := range s.payments {
		c.payments[k] = v
	}
	c.paymentOrder = append([]string(nil), s.paymentOrder...)
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	c.receiptOrder = append([]string(nil), s.receiptOrder...)
	return c
}

// NewStore crea una base vacía.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Repos devuelve repositorios en modo autocommit (cada operación es atómica por sí sola).
func (s *Store) Repos() ports.Repos {
	return s.repos(true)
}

func (s *Store) repos(auto bool) ports.Repos {
	b := base{s: s, auto: auto}
	return ports.Repos{
		Companies:   &companyRepo{b},
		Users:       &userRepo{b},
		Tokens:      &tokenRepo{b},
		Idempotency: &idempotencyRepo{b},
		Audit:       &auditRepo{b},
		Accounts:    &accountRepo{b},
		Journals:    &journalRepo{b},
		Periods:     &periodRepo{b},
		Payments:    &paymentRepo{b},
		Receipts:    &receiptRepo{b},
	}
}

// Run ejecuta fn en una transacción serializada. Error o panic => rollback.
func (s *Store) Run(ctx context.Context, fn func(tx ports.Repos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()
	if err := fn(s.repos(false)); err != nil {
		rollback()
		return err
	}
	// un cliente que se desconecta antes del commit no deja cambios
	if err := ctx.Err(); err != nil {
		rollback()
		return err
	}
	return nil
}

// ReadOnly ejecuta fn con el lock de transacciones tomado: ninguna escritura hace commit
// mientras fn lee. fn no debe escribir.
func (s *Store) ReadOnly(ctx context.Context, fn func(r ports.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s.repos(false))
}

// Ping siempre disponible.
func (s *Store) Ping(context.Context) error { return nil }

// FailAuditAppends hace fallar cada Append de auditoría con err (nil restablece). Solo tests.
func (s *Store) FailAuditAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditErr = err
}

// AddFiscalPeriod registra un periodo contable (seeds y tests).
func (s *Store) AddFiscalPeriod(p entity.FiscalPeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.periods = append(s.st.periods, p)
}

// AuditEvents copia de todos los eventos del tenant (tests).
func (s *Store) AuditEvents(tenantID string) []entity.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.AuditEvent
	for _, e := range s.st.audit {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out
}

type base struct {
	s    *Store
	auto bool
}

// read ejecuta fn con el estado bloqueado.
func (b base) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return fn(b.s.st)
}

// write como read, pero fuera de transacción también toma el lock de transacciones.
func (b base) write(ctx context.Context, fn func(st *state) error) error {
	if b.auto {
		b.s.txMu.Lock()
		defer b.s.txMu.Unlock()
	}
	return b.read(ctx, fn)
}
