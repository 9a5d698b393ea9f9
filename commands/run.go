package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/uhppoted/uhppoted-app-tasks/gsheets"
	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/web"
)

var RunCmd = Run{
	command: command{
		secrets: DEFAULT_SECRETS,
	},
}

type Run struct {
	command
	bind string
}

func (cmd *Run) Name() string {
	return "run"
}

func (cmd *Run) Description() string {
	return "Serves the task dashboard over HTTP"
}

func (cmd *Run) Usage() string {
	return "[--bind <address>] [--backend <backend>]"
}

func (cmd *Run) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] run [options]\n", APP)
	fmt.Println()
	fmt.Println("  Serves the task dashboard until interrupted")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s run --secrets secrets.yaml --bind 0.0.0.0:8080\n", APP)
	fmt.Printf("    %s --debug run --backend sqlite --db tasks.db\n", APP)
	fmt.Println()
}

func (cmd *Run) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("run")

	flagset.StringVar(&cmd.bind, "bind", cmd.bind, "HTTP bind address. Defaults to the address in the secrets file or 127.0.0.1:8080")

	return flagset
}

func (cmd *Run) Execute(args ...any) error {
	options := args[0].(*Options)

	cfg, err := cmd.configure(options)
	if err != nil {
		return err
	}

	if bind := strings.TrimSpace(cmd.bind); bind != "" {
		cfg.HTTP.Bind = bind
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, backend, closer, err := cmd.open(ctx, cfg)
	if err != nil {
		return err
	}

	defer closer()

	if r, ok := backend.(*gsheets.Resource); ok {
		if title, err := r.Title(ctx); err != nil {
			log.Warnf(APP, "%v", err)
		} else {
			log.Infof(APP, "spreadsheet '%v'", title)
		}
	}

	server, err := web.NewServer(s)
	if err != nil {
		return err
	}

	return server.Run(ctx, cfg.HTTP.Bind)
}
