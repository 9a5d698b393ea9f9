package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/uhppoted/uhppoted-app-tasks/gsheets"
)

var AuthoriseCmd = Authorise{
	command: command{
		secrets: DEFAULT_SECRETS,
	},
	bind: "127.0.0.1:0",
}

type Authorise struct {
	command
	bind string
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises uhppoted-app-tasks to access a Google Sheets spreadsheet"
}

func (cmd *Authorise) Usage() string {
	return "[--secrets <file>]"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Authorises uhppoted-app-tasks to access the Google Sheets spreadsheet with the OAuth2 client")
	fmt.Println("  credentials in the secrets file. Not required for a service account.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s authorise --secrets "secrets.yaml"`+"\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("authorise", flag.ExitOnError)

	flagset.StringVar(&cmd.secrets, "secrets", cmd.secrets, "YAML file with the spreadsheet key, credentials and settings")
	flagset.StringVar(&cmd.bind, "bind", cmd.bind, "Address for the local OAuth2 redirect listener")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	options := args[0].(*Options)

	cfg, err := cmd.configure(options)
	if err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Google.Credentials) == "" {
		return fmt.Errorf("no Google credentials file in %v", cmd.secrets)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return gsheets.Authorise(ctx, cfg.Credentials(), cmd.bind, os.Stdout, gsheets.SHEETS, gsheets.DRIVE)
}
