// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/ledger-service/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	nextID    int64
	accounts  map[ledger.AccountID]ledger.Account
	deposits  map[ledger.OperationID]ledger.DepositOperation
	transfers map[ledger.OperationID]ledger.TransferOperation
}

func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[ledger.AccountID]ledger.Account),
		deposits:  make(map[ledger.OperationID]ledger.DepositOperation),
		transfers: make(map[ledger.OperationID]ledger.TransferOperation),
	}
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

func (m *Memory) Accounts(_ context.Context) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]ledger.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *Memory) Account(_ context.Context, id ledger.AccountID) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) AccountByName(_ context.Context, name string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Name == name {
			account := a
			return &account, nil
		}
	}
	return nil, nil
}

func (m *Memory) AccountExists(_ context.Context, id ledger.AccountID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.accounts[id]
	return ok, nil
}

func (m *Memory) CreateAccount(_ context.Context, account ledger.Account) (*ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	account.ID = ledger.AccountID(m.nextID)
	m.accounts[account.ID] = account
	return &account, nil
}

func (m *Memory) DeleteAccount(_ context.Context, id ledger.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.accounts, id)
	for opID, op := range m.deposits {
		if op.AccountID == id {
			delete(m.deposits, opID)
		}
	}
	for opID, op := range m.transfers {
		if op.SenderID == id || op.ReceiverID == id {
			delete(m.transfers, opID)
		}
	}
	return nil
}

func (m *Memory) AdjustBalance(_ context.Context, id ledger.AccountID, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	a.Balance = a.Balance.Add(delta)
	m.accounts[id] = a
	return nil
}

// =============================================================================
// OPERATION STORE
// =============================================================================

func (m *Memory) InsertDeposit(_ context.Context, op ledger.DepositOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deposits[op.ID] = op
	return nil
}

func (m *Memory) Deposit(_ context.Context, id ledger.OperationID) (*ledger.DepositOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	op, ok := m.deposits[id]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

func (m *Memory) DepositsByAccount(_ context.Context, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.DepositOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ops []ledger.DepositOperation
	for _, op := range m.deposits {
		if op.AccountID == id && inSpan(span, op.UpdatedAt) {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].UpdatedAt.Before(ops[j].UpdatedAt) })
	return ops, nil
}

func (m *Memory) InsertTransfer(_ context.Context, op ledger.TransferOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transfers[op.ID] = op
	return nil
}

func (m *Memory) Transfer(_ context.Context, id ledger.OperationID) (*ledger.TransferOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	op, ok := m.transfers[id]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

func (m *Memory) TransfersBySender(_ context.Context, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.TransferOperation, error) {
	return m.listTransfers(span, func(op ledger.TransferOperation) bool { return op.SenderID == id })
}

func (m *Memory) TransfersByReceiver(_ context.Context, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.TransferOperation, error) {
	return m.listTransfers(span, func(op ledger.TransferOperation) bool { return op.ReceiverID == id })
}

func (m *Memory) listTransfers(span *ledger.TimeSpan, match func(ledger.TransferOperation) bool) ([]ledger.TransferOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ops []ledger.TransferOperation
	for _, op := range m.transfers {
		if match(op) && inSpan(span, op.UpdatedAt) {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].UpdatedAt.Before(ops[j].UpdatedAt) })
	return ops, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a copy of the state and swaps it in only when
// fn succeeds, so a failed unit leaves nothing behind.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	snapshot := m.clone()
	m.mu.Unlock()

	if err := fn(snapshot); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = snapshot.nextID
	m.accounts = snapshot.accounts
	m.deposits = snapshot.deposits
	m.transfers = snapshot.transfers
	return nil
}

func (m *Memory) clone() *Memory {
	c := NewMemory()
	c.nextID = m.nextID
	for id, a := range m.accounts {
		c.accounts[id] = a
	}
	for id, op := range m.deposits {
		c.deposits[id] = op
	}
	for id, op := range m.transfers {
		c.transfers[id] = op
	}
	return c
}

func inSpan(span *ledger.TimeSpan, t time.Time) bool {
	if span == nil {
		return true
	}
	return span.Contains(t)
}
