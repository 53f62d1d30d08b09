package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mailedger/internal/config"
	"mailedger/internal/connectors"
	gmailconnector "mailedger/internal/connectors/gmail"
	imapconnector "mailedger/internal/connectors/imap"
	"mailedger/internal/ledger"
	"mailedger/internal/listener"
	"mailedger/internal/logger"
	"mailedger/internal/model"
)

func main() {
	cfg, err := config.Load()
	must(err)

	store, err := ledger.Open(cfg.DBPath)
	must(err)
	defer store.Close()

	connector, err := makeConnector(cfg)
	must(err)

	var bundle *model.Bundle
	if cfg.ModelPath != "" {
		bundle, err = model.Load(cfg.ModelPath)
		must(err)
	}

	tz, err := time.LoadLocation(cfg.LedgerTZ)
	must(err)

	svc := listener.NewService(cfg, connector, store, bundle, tz, logger.New())
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func makeConnector(cfg config.Config) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.MailProvider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.MailProvider)
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
