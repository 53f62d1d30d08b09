package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mailedger/internal"
	"mailedger/internal/config"
	"mailedger/internal/connectors"
	"mailedger/internal/ledger"
	"mailedger/internal/model"
)

// Driver runs the fetch -> parse -> classify -> sync -> watermark sequence
// for every configured account, in declared order. Accounts fail
// independently; one bad account never stops the rest.
type Driver struct {
	accounts  *config.AccountsFile
	connector connectors.MailConnector
	ledger    ledger.Ledger
	bundle    *model.Bundle
	tz        *time.Location
	log       zerolog.Logger
}

// NewDriver wires the pipeline together. bundle may be nil, which disables
// classification for the run.
func NewDriver(accounts *config.AccountsFile, connector connectors.MailConnector, lg ledger.Ledger, bundle *model.Bundle, tz *time.Location, log zerolog.Logger) *Driver {
	if tz == nil {
		tz = time.UTC
	}
	return &Driver{accounts: accounts, connector: connector, ledger: lg, bundle: bundle, tz: tz, log: log}
}

func (d *Driver) Run() internal.RunReport {
	report := internal.RunReport{StartedAt: time.Now().UTC()}
	for _, name := range d.accounts.Order {
		outcome := d.runAccount(name, d.accounts.Accounts[name])
		if outcome.Err != nil {
			d.log.Error().Str("account", name).Err(outcome.Err).Msg("account sync failed")
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report
}

func (d *Driver) runAccount(name string, rules *config.AccountRules) internal.AccountOutcome {
	log := d.log.With().Str("account", name).Logger()

	// The fetch start time is captured before the fetch and becomes the new
	// watermark. Messages arriving mid-fetch land in the next run.
	fetchStart := time.Now().UTC()
	records, err := d.connector.FetchSince(rules.Label, rules.LastSync)
	if err != nil {
		return failed(name, fmt.Errorf("fetch: %w", err))
	}
	log.Info().Int("messages", len(records)).Msg("processing messages")

	watermark, transactions, err := NewParser(log).Parse(fetchStart, records, rules)
	if err != nil {
		return failed(name, fmt.Errorf("parse: %w", err))
	}

	if len(transactions) > 0 {
		for i := range transactions {
			transactions[i].Time = transactions[i].Time.In(d.tz)
		}
		if d.bundle != nil {
			transactions = Classify(transactions, name, d.bundle, log)
		} else {
			log.Info().Msg("no model bundle, skipping classification")
		}
		if err := Sync(name, transactions, d.ledger); err != nil {
			return failed(name, fmt.Errorf("sync: %w", err))
		}
	}

	// Watermark advances only after the commit, and immediately after: the
	// window between the two is the documented at-least-once-on-crash risk.
	if err := d.accounts.CommitWatermark(name, watermark); err != nil {
		return failed(name, fmt.Errorf("persist watermark (ledger batch already committed, %d transactions): %w", len(transactions), err))
	}

	status := internal.AccountSynced
	if len(records) == 0 {
		status = internal.AccountSkipped
	}
	return internal.AccountOutcome{
		Account:   name,
		Status:    status,
		Fetched:   len(records),
		Synced:    len(transactions),
		Watermark: watermark,
	}
}

func failed(name string, err error) internal.AccountOutcome {
	return internal.AccountOutcome{Account: name, Status: internal.AccountFailed, Err: err}
}
