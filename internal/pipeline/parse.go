package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"mailedger/internal"
	"mailedger/internal/config"
	"mailedger/internal/util"
)

// Parser turns a batch of fetched messages into candidate transactions.
type Parser struct {
	log zerolog.Logger
}

func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log}
}

// Parse produces the account's new watermark and its transactions. The
// watermark is always fetchStart, never a message time: that leaves no gap
// when the provider delivers messages out of order.
//
// Any extraction failure aborts the whole batch. A partial, possibly corrupt
// sync is worse than retrying the account on the next run.
func (p *Parser) Parse(fetchStart time.Time, records []internal.EmailRecord, rules *config.AccountRules) (time.Time, []internal.Transaction, error) {
	subjectRe, err := compileAnchored(rules.ValidSubjectRegex)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("valid_subject_regex: %w", err)
	}
	var depositRe, ignoreRe *regexp.Regexp
	if rules.DepositRegex != "" {
		if depositRe, err = compileAnchored(rules.DepositRegex); err != nil {
			return time.Time{}, nil, fmt.Errorf("deposit_regex: %w", err)
		}
	}
	if rules.IgnoreRegex != "" {
		if ignoreRe, err = compileAnchored(rules.IgnoreRegex); err != nil {
			return time.Time{}, nil, fmt.Errorf("ignore_regex: %w", err)
		}
	}

	// Sort by send time so identical inputs always yield identical output.
	sorted := make([]internal.EmailRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	transactions := []internal.Transaction{}
	for _, record := range sorted {
		if !record.Time.After(rules.LastSync) {
			p.log.Warn().Time("messageTime", record.Time).Time("lastSync", rules.LastSync).
				Msg("message at or before watermark, skipping")
			continue
		}
		if !subjectRe.MatchString(record.Subject) {
			p.log.Debug().Str("subject", record.Subject).Msg("subject rejected")
			continue
		}

		rawAmount, err := Extract(record, rules.Amount)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("amount: %w", err)
		}
		magnitude, err := util.ParseAmount(rawAmount)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("amount %q: %w", rawAmount, err)
		}

		rawDesc, err := Extract(record, rules.Description)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("description: %w", err)
		}
		desc := util.StripHTML(rawDesc)

		isDeposit := depositRe != nil && depositRe.MatchString(desc)
		amount := util.SignedAmount(magnitude, isDeposit)

		if ignoreRe != nil && ignoreRe.MatchString(desc) {
			p.log.Warn().Str("desc", desc).Msg("transaction ignored by rule")
			continue
		}

		p.log.Info().Time("time", record.Time).Str("amount", amount.String()).Str("desc", desc).
			Msg("transaction parsed")
		transactions = append(transactions, internal.Transaction{
			Time:   record.Time,
			Amount: amount,
			Desc:   desc,
		})
	}

	return fetchStart, transactions, nil
}

// compileAnchored matches at the start of the input, like the gating regexes
// in the account config expect.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")")
}
