package ledger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mailedger/internal"
	"mailedger/internal/util"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestResolveAccountNotFound(t *testing.T) {
	s := openStore(t)
	session, err := s.Begin()
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	_, err = session.ResolveAccount("ghost")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestInsertAndCommit(t *testing.T) {
	s := openStore(t)
	if err := s.AddAccount("checking"); err != nil {
		t.Fatal(err)
	}

	session, err := s.Begin()
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	handle, err := session.ResolveAccount("checking")
	if err != nil {
		t.Fatal(err)
	}

	txn := internal.Transaction{
		Time:     time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		Amount:   decimal.RequireFromString("-1234.56"),
		Desc:     "COFFEE SHOP",
		Category: util.StringPtr("Food"),
		Payee:    util.StringPtr("Coffee Shop"),
	}
	if err := session.Insert(handle, txn); err != nil {
		t.Fatal(err)
	}
	if err := session.Commit(); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ListTransactions("checking")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("len=%d", len(rows))
	}
	if rows[0].Date != "2024-01-02" {
		t.Fatalf("date=%q", rows[0].Date)
	}
	if !rows[0].Amount.Equal(txn.Amount) {
		t.Fatalf("amount=%s", rows[0].Amount.String())
	}
	if rows[0].Payee == nil || *rows[0].Payee != "Coffee Shop" {
		t.Fatalf("payee=%v", rows[0].Payee)
	}
	if rows[0].Category == nil || *rows[0].Category != "Food" {
		t.Fatalf("category=%v", rows[0].Category)
	}
}

func TestCloseWithoutCommitRollsBack(t *testing.T) {
	s := openStore(t)
	if err := s.AddAccount("checking"); err != nil {
		t.Fatal(err)
	}

	session, err := s.Begin()
	if err != nil {
		t.Fatal(err)
	}
	handle, err := session.ResolveAccount("checking")
	if err != nil {
		t.Fatal(err)
	}
	txn := internal.Transaction{
		Time:   time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString("-5"),
		Desc:   "DROPPED",
	}
	if err := session.Insert(handle, txn); err != nil {
		t.Fatal(err)
	}
	if err := session.Close(); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ListTransactions("checking")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("len=%d", len(rows))
	}
}

func TestAddAccountIdempotent(t *testing.T) {
	s := openStore(t)
	if err := s.AddAccount("checking"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAccount("checking"); err != nil {
		t.Fatal(err)
	}
	names, err := s.ListAccounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "checking" {
		t.Fatalf("names=%v", names)
	}
}
