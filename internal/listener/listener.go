package listener

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mailedger/internal/config"
	"mailedger/internal/connectors"
	"mailedger/internal/ledger"
	"mailedger/internal/model"
	"mailedger/internal/pipeline"
)

// Service runs the sync pipeline on a fixed cadence until the context is
// cancelled.
type Service struct {
	cfg       config.Config
	connector connectors.MailConnector
	ledger    ledger.Ledger
	bundle    *model.Bundle
	tz        *time.Location
	log       zerolog.Logger
}

func NewService(cfg config.Config, connector connectors.MailConnector, lg ledger.Ledger, bundle *model.Bundle, tz *time.Location, log zerolog.Logger) *Service {
	return &Service{cfg: cfg, connector: connector, ledger: lg, bundle: bundle, tz: tz, log: log}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(); err != nil {
			s.log.Error().Err(err).Msg("sync cycle error")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.SyncIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle() error {
	// Reload each cycle: watermarks were rewritten by the previous cycle and
	// operators may have edited rules in between.
	accounts, err := config.LoadAccounts(s.cfg.AccountsPath)
	if err != nil {
		return err
	}

	driver := pipeline.NewDriver(accounts, s.connector, s.ledger, s.bundle, s.tz, s.log)
	report := driver.Run()
	s.log.Info().Int("accounts", len(report.Outcomes)).Int("failed", report.Failed()).
		Msg("sync cycle done")
	return nil
}
