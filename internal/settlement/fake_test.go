package settlement_test

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	"github.com/MrJamesThe3rd/privcap/internal/settlement"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

var errInjected = errors.New("injected failure")

// ledger is an in-memory settlement.Repository. An open unit holds the ledger lock until it
// commits or rolls back, which serialises settlements the way the transfer row lock does.
type ledger struct {
	lock sync.Mutex

	transfers   map[uuid.UUID]transfer.Transfer
	investments map[uuid.UUID]investment.Investment
	emails      map[uuid.UUID]string
	activities  []investment.Activity
	snapshots   []investment.Snapshot

	// failOn names a Tx method that fails once reached.
	failOn string
}

func newLedger() *ledger {
	return &ledger{
		transfers:   map[uuid.UUID]transfer.Transfer{},
		investments: map[uuid.UUID]investment.Investment{},
		emails:      map[uuid.UUID]string{},
	}
}

func (l *ledger) addInvestor(email string) uuid.UUID {
	id := uuid.New()
	l.emails[id] = email

	return id
}

func (l *ledger) addInvestment(inv investment.Investment) investment.Investment {
	inv.ID = uuid.New()
	l.investments[inv.ID] = inv

	return inv
}

func (l *ledger) addTransfer(t transfer.Transfer) transfer.Transfer {
	t.ID = uuid.New()
	t.ApplyFees()
	l.transfers[t.ID] = t

	return t
}

func (l *ledger) investment(id uuid.UUID) investment.Investment {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.investments[id]
}

func (l *ledger) transfer(id uuid.UUID) transfer.Transfer {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.transfers[id]
}

func (l *ledger) positions(owner uuid.UUID) []investment.Investment {
	l.lock.Lock()
	defer l.lock.Unlock()

	var out []investment.Investment

	for _, inv := range l.investments {
		if inv.OwnerID == owner {
			out = append(out, inv)
		}
	}

	return out
}

func (l *ledger) ledgerActivities() []investment.Activity {
	l.lock.Lock()
	defer l.lock.Unlock()

	return append([]investment.Activity(nil), l.activities...)
}

func (l *ledger) Begin(context.Context) (settlement.Tx, error) {
	l.lock.Lock()

	return &fakeTx{
		l:           l,
		transfers:   maps.Clone(l.transfers),
		investments: maps.Clone(l.investments),
		activities:  append([]investment.Activity(nil), l.activities...),
		snapshots:   append([]investment.Snapshot(nil), l.snapshots...),
	}, nil
}

type fakeTx struct {
	l    *ledger
	done bool

	transfers   map[uuid.UUID]transfer.Transfer
	investments map[uuid.UUID]investment.Investment
	activities  []investment.Activity
	snapshots   []investment.Snapshot
}

func (tx *fakeTx) fail(method string) error {
	if tx.l.failOn == method {
		return errInjected
	}

	return nil
}

func (tx *fakeTx) LockTransfer(_ context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	t, ok := tx.transfers[id]
	if !ok {
		return nil, apperr.NotFound("transfer %s not found", id)
	}

	return &t, nil
}

func (tx *fakeTx) LockInvestment(_ context.Context, id uuid.UUID) (*investment.Investment, error) {
	inv, ok := tx.investments[id]
	if !ok {
		return nil, apperr.NotFound("investment %s not found", id)
	}

	return &inv, nil
}

func (tx *fakeTx) FindOrCreateInvestment(_ context.Context, tmpl *investment.Investment) (*investment.Investment, bool, error) {
	for _, inv := range tx.investments {
		if inv.OwnerID == tmpl.OwnerID && inv.Name == tmpl.Name {
			return &inv, false, nil
		}
	}

	if err := tx.fail("FindOrCreateInvestment"); err != nil {
		return nil, false, err
	}

	tmpl.ID = uuid.New()
	tx.investments[tmpl.ID] = *tmpl

	return tmpl, true, nil
}

func (tx *fakeTx) UpdateBalances(_ context.Context, inv *investment.Investment) error {
	if err := inv.CheckBalances(); err != nil {
		return err
	}

	tx.investments[inv.ID] = *inv

	return nil
}

func (tx *fakeTx) InsertActivity(_ context.Context, a *investment.Activity) error {
	if err := a.Validate(); err != nil {
		return err
	}

	a.ID = uuid.New()
	tx.activities = append(tx.activities, *a)

	return nil
}

func (tx *fakeTx) InsertSnapshot(_ context.Context, s *investment.Snapshot) error {
	tx.snapshots = append(tx.snapshots, *s)
	return nil
}

func (tx *fakeTx) InvestorEmail(_ context.Context, id uuid.UUID) (string, error) {
	email, ok := tx.l.emails[id]
	if !ok {
		return "", apperr.NotFound("investor %s not found", id)
	}

	return email, nil
}

func (tx *fakeTx) MarkProcessed(_ context.Context, id uuid.UUID) error {
	if err := tx.fail("MarkProcessed"); err != nil {
		return err
	}

	t := tx.transfers[id]
	if t.IsProcessed {
		return transfer.ErrStale
	}

	t.IsProcessed = true
	tx.transfers[id] = t

	return nil
}

func (tx *fakeTx) Commit() error {
	if tx.done {
		return errors.New("tx already done")
	}

	tx.l.transfers = tx.transfers
	tx.l.investments = tx.investments
	tx.l.activities = tx.activities
	tx.l.snapshots = tx.snapshots

	tx.done = true
	tx.l.lock.Unlock()

	return nil
}

func (tx *fakeTx) Rollback() error {
	if tx.done {
		return nil
	}

	tx.done = true
	tx.l.lock.Unlock()

	return nil
}
