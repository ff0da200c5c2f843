/*
Package sqlite provides a SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.TxStore using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

SCHEMA:
  accounts:            name-unique rows with a running balance
  deposit_operations:  insert-only deposit records
  transfer_operations: insert-only transfer records

  Migrations are versioned SQL files embedded in the binary and applied
  with golang-migrate on New().

AMOUNTS:
  Balances and deposits are stored as decimal strings and all arithmetic
  happens in Go on decimal.Decimal. SQLite would coerce TEXT operands to
  floats, so AdjustBalance reads, adds and writes within the surrounding
  transaction instead of computing in SQL.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; WithTx holds the write lock for
  the whole unit of work, so a balance read inside a transaction cannot
  be clobbered by a concurrent writer. With PostgreSQL, row-level locks
  would take over this duty.

WAL MODE:
  The database is opened with WAL and foreign keys on: readers don't
  block, a single writer at a time, cascaded cleanup of operation rows.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil { ... }
  defer store.Close()
  svc := ledger.NewService(store, ledger.UUIDGenerator{})

SEE ALSO:
  - ledger/store.go: interface definitions
  - ledger/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-service/ledger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeFormat is fixed-width so stored timestamps compare correctly as
// strings in range queries.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path and applies pending
// migrations. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time, and each pooled connection to
	// ":memory:" would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to set up migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to set up migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// =============================================================================
// ACCOUNT STORE (ledger.AccountStore interface)
// =============================================================================

func (s *Store) Accounts(ctx context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAccounts(ctx, s.db)
}

func (s *Store) Account(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAccount(ctx, s.db, id)
}

func (s *Store) AccountByName(ctx context.Context, name string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAccountByName(ctx, s.db, name)
}

func (s *Store) AccountExists(ctx context.Context, id ledger.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return accountExists(ctx, s.db, id)
}

func (s *Store) CreateAccount(ctx context.Context, account ledger.Account) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createAccount(ctx, s.db, account)
}

func (s *Store) DeleteAccount(ctx context.Context, id ledger.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteAccount(ctx, s.db, id)
}

func (s *Store) AdjustBalance(ctx context.Context, id ledger.AccountID, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return adjustBalance(ctx, s.db, id, delta)
}

func listAccounts(ctx context.Context, q dbtx) ([]ledger.Account, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, password_hash, balance FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func getAccount(ctx context.Context, q dbtx, id ledger.AccountID) (*ledger.Account, error) {
	return queryAccount(ctx, q,
		"SELECT id, name, password_hash, balance FROM accounts WHERE id = ?", int64(id))
}

func getAccountByName(ctx context.Context, q dbtx, name string) (*ledger.Account, error) {
	return queryAccount(ctx, q,
		"SELECT id, name, password_hash, balance FROM accounts WHERE name = ?", name)
}

func queryAccount(ctx context.Context, q dbtx, query string, arg any) (*ledger.Account, error) {
	var (
		account ledger.Account
		balance string
	)
	err := q.QueryRowContext(ctx, query, arg).
		Scan(&account.ID, &account.Name, &account.PasswordHash, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	account.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for account %d: %w", account.ID, err)
	}
	return &account, nil
}

func accountExists(ctx context.Context, q dbtx, id ledger.AccountID) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE id = ?", int64(id)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	return count > 0, nil
}

func createAccount(ctx context.Context, q dbtx, account ledger.Account) (*ledger.Account, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO accounts (name, password_hash, balance) VALUES (?, ?, ?)",
		account.Name, account.PasswordHash, account.Balance.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read account id: %w", err)
	}
	account.ID = ledger.AccountID(id)
	return &account, nil
}

func deleteAccount(ctx context.Context, q dbtx, id ledger.AccountID) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", int64(id)); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func adjustBalance(ctx context.Context, q dbtx, id ledger.AccountID, delta decimal.Decimal) error {
	// Decimal math in Go; SQLite would treat the TEXT column as a float.
	var balance string
	err := q.QueryRowContext(ctx,
		"SELECT balance FROM accounts WHERE id = ?", int64(id)).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	current, err := decimal.NewFromString(balance)
	if err != nil {
		return fmt.Errorf("corrupt balance for account %d: %w", id, err)
	}

	_, err = q.ExecContext(ctx,
		"UPDATE accounts SET balance = ? WHERE id = ?",
		current.Add(delta).String(), int64(id))
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func scanAccount(rows *sql.Rows) (ledger.Account, error) {
	var (
		account ledger.Account
		balance string
	)
	if err := rows.Scan(&account.ID, &account.Name, &account.PasswordHash, &balance); err != nil {
		return account, fmt.Errorf("failed to scan account: %w", err)
	}

	var err error
	account.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return account, fmt.Errorf("corrupt balance for account %d: %w", account.ID, err)
	}
	return account, nil
}

// =============================================================================
// OPERATION STORE (ledger.OperationStore interface)
// =============================================================================

func (s *Store) InsertDeposit(ctx context.Context, op ledger.DepositOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertDeposit(ctx, s.db, op)
}

func (s *Store) Deposit(ctx context.Context, id ledger.OperationID) (*ledger.DepositOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ops, err := queryDeposits(ctx, s.db,
		"SELECT id, account_id, deposit, updated_at FROM deposit_operations WHERE id = ?", int64(id))
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, nil
	}
	return &ops[0], nil
}

func (s *Store) DepositsByAccount(ctx context.Context, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.DepositOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return depositsByAccount(ctx, s.db, id, span)
}

func (s *Store) InsertTransfer(ctx context.Context, op ledger.TransferOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertTransfer(ctx, s.db, op)
}

func (s *Store) Transfer(ctx context.Context, id ledger.OperationID) (*ledger.TransferOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ops, err := queryTransfers(ctx, s.db,
		"SELECT id, sender_id, receiver_id, deposit, updated_at FROM transfer_operations WHERE id = ?", int64(id))
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, nil
	}
	return &ops[0], nil
}

func (s *Store) TransfersBySender(ctx context.Context, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.TransferOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transfersBy(ctx, s.db, "sender_id", id, span)
}

func (s *Store) TransfersByReceiver(ctx context.Context, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.TransferOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transfersBy(ctx, s.db, "receiver_id", id, span)
}

func insertDeposit(ctx context.Context, q dbtx, op ledger.DepositOperation) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO deposit_operations (id, account_id, deposit, updated_at) VALUES (?, ?, ?, ?)",
		int64(op.ID), int64(op.AccountID), op.Deposit.String(), op.UpdatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to insert deposit operation: %w", err)
	}
	return nil
}

func insertTransfer(ctx context.Context, q dbtx, op ledger.TransferOperation) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO transfer_operations (id, sender_id, receiver_id, deposit, updated_at) VALUES (?, ?, ?, ?, ?)",
		int64(op.ID), int64(op.SenderID), int64(op.ReceiverID), op.Deposit.String(), op.UpdatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to insert transfer operation: %w", err)
	}
	return nil
}

func depositsByAccount(ctx context.Context, q dbtx, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.DepositOperation, error) {
	query := "SELECT id, account_id, deposit, updated_at FROM deposit_operations WHERE account_id = ?"
	args := []any{int64(id)}
	query, args = withSpan(query, args, span)
	return queryDeposits(ctx, q, query+" ORDER BY updated_at ASC", args...)
}

func transfersBy(ctx context.Context, q dbtx, column string, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.TransferOperation, error) {
	query := "SELECT id, sender_id, receiver_id, deposit, updated_at FROM transfer_operations WHERE " + column + " = ?"
	args := []any{int64(id)}
	query, args = withSpan(query, args, span)
	return queryTransfers(ctx, q, query+" ORDER BY updated_at ASC", args...)
}

func withSpan(query string, args []any, span *ledger.TimeSpan) (string, []any) {
	if span == nil {
		return query, args
	}
	query += " AND updated_at >= ? AND updated_at < ?"
	args = append(args, span.From.UTC().Format(timeFormat), span.To.UTC().Format(timeFormat))
	return query, args
}

func queryDeposits(ctx context.Context, q dbtx, query string, args ...any) ([]ledger.DepositOperation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposit operations: %w", err)
	}
	defer rows.Close()

	var ops []ledger.DepositOperation
	for rows.Next() {
		var (
			op        ledger.DepositOperation
			deposit   string
			updatedAt string
		)
		if err := rows.Scan(&op.ID, &op.AccountID, &deposit, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deposit operation: %w", err)
		}
		if op.Deposit, op.UpdatedAt, err = parseAmountAndTime(deposit, updatedAt); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func queryTransfers(ctx context.Context, q dbtx, query string, args ...any) ([]ledger.TransferOperation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer operations: %w", err)
	}
	defer rows.Close()

	var ops []ledger.TransferOperation
	for rows.Next() {
		var (
			op        ledger.TransferOperation
			deposit   string
			updatedAt string
		)
		if err := rows.Scan(&op.ID, &op.SenderID, &op.ReceiverID, &deposit, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer operation: %w", err)
		}
		if op.Deposit, op.UpdatedAt, err = parseAmountAndTime(deposit, updatedAt); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func parseAmountAndTime(deposit, updatedAt string) (decimal.Decimal, time.Time, error) {
	d, err := decimal.NewFromString(deposit)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("corrupt deposit amount: %w", err)
	}
	t, err := time.Parse(timeFormat, updatedAt)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("corrupt operation timestamp: %w", err)
	}
	return d, t, nil
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. The write lock is
// held for the whole unit, so balance reads inside fn cannot race a
// concurrent writer.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore runs every Store call on the open transaction, without
// re-taking the parent's lock.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Accounts(ctx context.Context) ([]ledger.Account, error) {
	return listAccounts(ctx, ts.tx)
}

func (ts *txStore) Account(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	return getAccount(ctx, ts.tx, id)
}

func (ts *txStore) AccountByName(ctx context.Context, name string) (*ledger.Account, error) {
	return getAccountByName(ctx, ts.tx, name)
}

func (ts *txStore) AccountExists(ctx context.Context, id ledger.AccountID) (bool, error) {
	return accountExists(ctx, ts.tx, id)
}

func (ts *txStore) CreateAccount(ctx context.Context, account ledger.Account) (*ledger.Account, error) {
	return createAccount(ctx, ts.tx, account)
}

func (ts *txStore) DeleteAccount(ctx context.Context, id ledger.AccountID) error {
	return deleteAccount(ctx, ts.tx, id)
}

func (ts *txStore) AdjustBalance(ctx context.Context, id ledger.AccountID, delta decimal.Decimal) error {
	return adjustBalance(ctx, ts.tx, id, delta)
}

func (ts *txStore) InsertDeposit(ctx context.Context, op ledger.DepositOperation) error {
	return insertDeposit(ctx, ts.tx, op)
}

func (ts *txStore) Deposit(ctx context.Context, id ledger.OperationID) (*ledger.DepositOperation, error) {
	ops, err := queryDeposits(ctx, ts.tx,
		"SELECT id, account_id, deposit, updated_at FROM deposit_operations WHERE id = ?", int64(id))
	if err != nil || len(ops) == 0 {
		return nil, err
	}
	return &ops[0], nil
}

func (ts *txStore) DepositsByAccount(ctx context.Context, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.DepositOperation, error) {
	return depositsByAccount(ctx, ts.tx, id, span)
}

func (ts *txStore) InsertTransfer(ctx context.Context, op ledger.TransferOperation) error {
	return insertTransfer(ctx, ts.tx, op)
}

func (ts *txStore) Transfer(ctx context.Context, id ledger.OperationID) (*ledger.TransferOperation, error) {
	ops, err := queryTransfers(ctx, ts.tx,
		"SELECT id, sender_id, receiver_id, deposit, updated_at FROM transfer_operations WHERE id = ?", int64(id))
	if err != nil || len(ops) == 0 {
		return nil, err
	}
	return &ops[0], nil
}

func (ts *txStore) TransfersBySender(ctx context.Context, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.TransferOperation, error) {
	return transfersBy(ctx, ts.tx, "sender_id", id, span)
}

func (ts *txStore) TransfersByReceiver(ctx context.Context, id ledger.AccountID, span *ledger.TimeSpan) ([]ledger.TransferOperation, error) {
	return transfersBy(ctx, ts.tx, "receiver_id", id, span)
}
