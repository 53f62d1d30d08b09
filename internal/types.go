package internal

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmailRecord is one fetched message, immutable once built by a connector.
type EmailRecord struct {
	Time    time.Time
	Subject string
	Text    string
	HTML    string
	Body    string
}

// Transaction is a candidate ledger entry. Amount is signed: negative is an
// outflow, positive a deposit.
type Transaction struct {
	Time     time.Time
	Amount   decimal.Decimal
	Desc     string
	Category *string
	Payee    *string
}

type AccountStatus string

const (
	AccountSynced  AccountStatus = "SYNCED"
	AccountSkipped AccountStatus = "SKIPPED"
	AccountFailed  AccountStatus = "FAILED"
)

// AccountOutcome is the per-account result of one run. A failed account never
// aborts the run; its watermark stays untouched.
type AccountOutcome struct {
	Account   string
	Status    AccountStatus
	Fetched   int
	Synced    int
	Watermark time.Time
	Err       error
}

type RunReport struct {
	StartedAt time.Time
	Outcomes  []AccountOutcome
}

func (r RunReport) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == AccountFailed {
			n++
		}
	}
	return n
}

// LedgerRow is a transaction as read back from the ledger, for export.
type LedgerRow struct {
	Date     string
	Amount   decimal.Decimal
	Notes    string
	Payee    *string
	Category *string
}
