package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"mailedger/internal"
)

// ErrAccountNotFound means the ledger has no account with the requested
// name. Accounts are created explicitly, never as a side effect of a sync.
var ErrAccountNotFound = errors.New("ledger account not found")

// Ledger is the external record store at the end of the pipeline. One session
// spans one account's batch and commits atomically.
type Ledger interface {
	Begin() (Session, error)
}

type Session interface {
	// ResolveAccount returns an account handle or ErrAccountNotFound.
	ResolveAccount(name string) (int64, error)
	Insert(account int64, t internal.Transaction) error
	Commit() error
	// Close rolls back unless Commit already succeeded. Safe to defer.
	Close() error
}

type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS accounts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS payees (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS transactions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  accountId INTEGER NOT NULL,
  date TEXT NOT NULL,
  amount TEXT NOT NULL,
  notes TEXT NOT NULL,
  payeeId INTEGER,
  categoryId INTEGER,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(accountId) REFERENCES accounts(id),
  FOREIGN KEY(payeeId) REFERENCES payees(id),
  FOREIGN KEY(categoryId) REFERENCES categories(id)
);
CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(accountId, date);
`

	_, err := s.conn.Exec(schema)
	return err
}

func (s *Store) AddAccount(name string) error {
	_, err := s.conn.Exec(`INSERT INTO accounts (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	return err
}

func (s *Store) ListAccounts() ([]string, error) {
	rows, err := s.conn.Query(`SELECT name FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *Store) ListTransactions(account string) ([]internal.LedgerRow, error) {
	rows, err := s.conn.Query(`
SELECT t.date, t.amount, t.notes, p.name, c.name
FROM transactions t
JOIN accounts a ON a.id = t.accountId
LEFT JOIN payees p ON p.id = t.payeeId
LEFT JOIN categories c ON c.id = t.categoryId
WHERE a.name = ?
ORDER BY t.date ASC, t.id ASC
`, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.LedgerRow
	for rows.Next() {
		var row internal.LedgerRow
		var amount string
		if err := rows.Scan(&row.Date, &amount, &row.Notes, &row.Payee, &row.Category); err != nil {
			return nil, err
		}
		if row.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("stored amount %q: %w", amount, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) Begin() (Session, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return nil, err
	}
	return &storeSession{tx: tx}, nil
}

type storeSession struct {
	tx        *sql.Tx
	committed bool
}

func (s *storeSession) ResolveAccount(name string) (int64, error) {
	var id int64
	err := s.tx.QueryRow(`SELECT id FROM accounts WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *storeSession) Insert(account int64, t internal.Transaction) error {
	payeeID, err := s.resolveOrCreate("payees", t.Payee)
	if err != nil {
		return err
	}
	categoryID, err := s.resolveOrCreate("categories", t.Category)
	if err != nil {
		return err
	}

	// Amounts are stored as exact decimal text, never floats.
	_, err = s.tx.Exec(`
INSERT INTO transactions (accountId, date, amount, notes, payeeId, categoryId)
VALUES (?, ?, ?, ?, ?, ?)
`, account, t.Time.Format("2006-01-02"), t.Amount.String(), t.Desc, payeeID, categoryID)
	return err
}

func (s *storeSession) resolveOrCreate(table string, name *string) (*int64, error) {
	if name == nil || *name == "" {
		return nil, nil
	}
	if _, err := s.tx.Exec(`INSERT INTO `+table+` (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, *name); err != nil {
		return nil, err
	}
	var id int64
	if err := s.tx.QueryRow(`SELECT id FROM `+table+` WHERE name = ?`, *name).Scan(&id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *storeSession) Commit() error {
	if err := s.tx.Commit(); err != nil {
		return err
	}
	s.committed = true
	return nil
}

func (s *storeSession) Close() error {
	if s.committed {
		return nil
	}
	return s.tx.Rollback()
}
