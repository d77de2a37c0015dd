// Package memstore is an in-process implementation of repository.Querier used
// by tests and by the memory storage driver.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// table keeps rows in insertion order with an id index.
type table[T any] struct {
	rows  []T
	index map[uuid.UUID]int
}

func newTable[T any]() table[T] {
	return table[T]{index: make(map[uuid.UUID]int)}
}

func (t table[T]) clone() table[T] {
	return table[T]{rows: slices.Clone(t.rows), index: maps.Clone(t.index)}
}

func (t *table[T]) insert(id uuid.UUID, row T) {
	t.index[id] = len(t.rows)
	t.rows = append(t.rows, row)
}

func (t *table[T]) get(id uuid.UUID) (*T, bool) {
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return &t.rows[i], true
}

type state struct {
	users        table[models.User]
	operators    table[models.Operator]
	rates        table[models.ExchangeRate]
	recharges    table[models.RechargeRequest]
	loans        table[models.Loan]
	cuts         table[models.DailyCut]
	transactions table[models.Transaction]
	audit        []models.AuditLog
	auditSeq     int64
	idempotency  map[string]repository.IdempotencyKey
}

func newState() *state {
	return &state{
		users:        newTable[models.User](),
		operators:    newTable[models.Operator](),
		rates:        newTable[models.ExchangeRate](),
		recharges:    newTable[models.RechargeRequest](),
		loans:        newTable[models.Loan](),
		cuts:         newTable[models.DailyCut](),
		transactions: newTable[models.Transaction](),
		idempotency:  make(map[string]repository.IdempotencyKey),
	}
}

// clone copies every table. Rows are values and are replaced, never mutated
// through shared pointers, so a shallow copy per table is enough.
func (s *state) clone() *state {
	return &state{
		users:        s.users.clone(),
		operators:    s.operators.clone(),
		rates:        s.rates.clone(),
		recharges:    s.recharges.clone(),
		loans:        s.loans.clone(),
		cuts:         s.cuts.clone(),
		transactions: s.transactions.clone(),
		audit:        slices.Clone(s.audit),
		auditSeq:     s.auditSeq,
		idempotency:  maps.Clone(s.idempotency),
	}
}

// Store serializes every operation behind one mutex. RunInTx holds the mutex
// for the whole callback and restores a snapshot when the callback fails.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithClock overrides the clock used for server-side timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Queries returns a view that locks around each call.
func (s *Store) Queries() repository.Querier {
	return &view{store: s}
}

func (s *Store) RunInTx(ctx context.Context, fn func(q repository.Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&view{store: s, inTx: true}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

var _ repository.Querier = (*view)(nil)

type view struct {
	store *Store
	inTx  bool
}

// begin acquires the store lock unless the view belongs to a running transaction.
func (v *view) begin() (*state, func()) {
	if v.inTx {
		return v.store.st, func() {}
	}
	v.store.mu.Lock()
	return v.store.st, v.store.mu.Unlock
}

func uniqueErr(constraint string) error {
	return &pgconn.PgError{Code: uniqueViolation, ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}
