package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"mailedger/internal"
	"mailedger/internal/config"
	"mailedger/internal/connectors"
	gmailconnector "mailedger/internal/connectors/gmail"
	imapconnector "mailedger/internal/connectors/imap"
	"mailedger/internal/ledger"
	"mailedger/internal/logger"
	"mailedger/internal/model"
	"mailedger/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	store, err := ledger.Open(cfg.DBPath)
	must(err)
	defer store.Close()

	log := logger.New()

	cmd := os.Args[1]
	switch cmd {
	case "sync":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailProvider, "gmail|imap")
		_ = fs.Parse(os.Args[2:])

		accounts, err := config.LoadAccounts(cfg.AccountsPath)
		must(err)

		connector, err := makeConnector(cfg, *provider)
		must(err)

		var bundle *model.Bundle
		if cfg.ModelPath != "" {
			bundle, err = model.Load(cfg.ModelPath)
			must(err)
		}

		tz, err := time.LoadLocation(cfg.LedgerTZ)
		must(err)

		driver := pipeline.NewDriver(accounts, connector, store, bundle, tz, log)
		report := driver.Run()
		for _, o := range report.Outcomes {
			if o.Status == internal.AccountFailed {
				fmt.Printf("account=%s status=%s error=%v\n", o.Account, o.Status, o.Err)
				continue
			}
			fmt.Printf("account=%s status=%s fetched=%d synced=%d watermark=%s\n",
				o.Account, o.Status, o.Fetched, o.Synced, o.Watermark.Format(time.RFC3339))
		}
		if report.Failed() > 0 {
			os.Exit(1)
		}
	case "accounts:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "ledger account name")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--name is required"))
		}
		must(store.AddAccount(*name))
		fmt.Printf("account added: %s\n", *name)
	case "accounts:list":
		names, err := store.ListAccounts()
		must(err)
		for _, name := range names {
			fmt.Println(name)
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		account := fs.String("account", "", "ledger account name")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*account) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--account and --out are required"))
		}
		rows, err := store.ListTransactions(*account)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no transactions for account=%s", *account))
		}
		must(pipeline.ExportRowsToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: mailedger <command>")
	fmt.Println("commands:")
	fmt.Println("  sync [--provider=gmail|imap]")
	fmt.Println("  accounts:add --name=checking")
	fmt.Println("  accounts:list")
	fmt.Println("  export:xlsx --account=checking --out=./out/transactions.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
