package fakesessionrepo

import (
	"context"
	"fmt"
	"sync"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps records in memory, keyed by table then username. With
// WithCallLog it also records every call so tests can assert on store traffic.
type FakeSessionRepo struct {
	tables  map[string]map[string]*sessions.Record
	logCall bool
	calls   []string
	errs    map[string]error
	lock    sync.RWMutex
}

type Option func(sr *FakeSessionRepo)

// WithCallLog records every operation for Calls. The log is unbounded, so leave it off
// outside tests.
func WithCallLog() Option {
	return func(sr *FakeSessionRepo) {
		sr.logCall = true
	}
}

func NewFakeSessionRepo(opts ...Option) *FakeSessionRepo {
	sr := &FakeSessionRepo{
		tables: make(map[string]map[string]*sessions.Record),
		errs:   make(map[string]error),
	}
	for _, opt := range opts {
		opt(sr)
	}
	return sr
}

// FailOn makes the named operation ("get", "put", "update", "delete") on table fail with err.
func (sr *FakeSessionRepo) FailOn(op, table string, err error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.errs[op+" "+table] = err
}

// Calls returns the operations performed so far, e.g. "update primary alice".
// Empty unless the repo was built WithCallLog.
func (sr *FakeSessionRepo) Calls() []string {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return append([]string(nil), sr.calls...)
}

func (sr *FakeSessionRepo) record(op, table, username string) error {
	if sr.logCall {
		sr.calls = append(sr.calls, fmt.Sprintf("%s %s %s", op, table, username))
	}
	return sr.errs[op+" "+table]
}

func (sr *FakeSessionRepo) Get(_ context.Context, table, username string) (*sessions.Record, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if err := sr.record("get", table, username); err != nil {
		return nil, err
	}
	r, ok := sr.tables[table][username]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	return r.Clone(), nil
}

func (sr *FakeSessionRepo) Put(_ context.Context, table string, record *sessions.Record) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if err := sr.record("put", table, record.Username); err != nil {
		return err
	}
	if _, ok := sr.tables[table]; !ok {
		sr.tables[table] = make(map[string]*sessions.Record)
	}
	sr.tables[table][record.Username] = record.Clone()
	return nil
}

func (sr *FakeSessionRepo) Update(_ context.Context, table, username string, update sessions.Update) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if err := sr.record("update", table, username); err != nil {
		return err
	}
	r, ok := sr.tables[table][username]
	if !ok {
		return sessions.ErrNotFound
	}
	r.Apply(update)
	return nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, table, username string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if err := sr.record("delete", table, username); err != nil {
		return err
	}
	delete(sr.tables[table], username)
	return nil
}
