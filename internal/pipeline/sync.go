package pipeline

import (
	"fmt"

	"mailedger/internal"
	"mailedger/internal/ledger"
)

// Sync writes one account's batch into the ledger as a single atomic unit.
// Nothing is durable until the final commit succeeds, so a failure anywhere
// leaves the ledger exactly as it was.
func Sync(account string, transactions []internal.Transaction, lg ledger.Ledger) error {
	session, err := lg.Begin()
	if err != nil {
		return fmt.Errorf("open ledger session: %w", err)
	}
	defer session.Close()

	handle, err := session.ResolveAccount(account)
	if err != nil {
		return err
	}

	for _, t := range transactions {
		if err := session.Insert(handle, t); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := session.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
