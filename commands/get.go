package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/report"
)

var GetCmd = Get{
	command: command{
		secrets: DEFAULT_SECRETS,
	},
	tab:  "",
	file: time.Now().Format("2006-01-02T150405.tsv"),
}

type Get struct {
	command
	tab  string
	file string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves a spreadsheet tab and stores it to a local TSV file"
}

func (cmd *Get) Usage() string {
	return "--tab <tab> [--file <file>]"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --tab <tab> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads a Tareas, Categorias, Usuarios or Comentarios tab to a TSV file")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s --debug get --secrets "secrets.yaml" --tab Tareas --file "tareas.tsv"`+"\n", APP)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.tab, "tab", cmd.tab, "Spreadsheet tab e.g. 'Tareas'")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to '<yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	options := args[0].(*Options)

	if strings.TrimSpace(cmd.tab) == "" {
		return fmt.Errorf("--tab is a required option")
	}

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	cfg, err := cmd.configure(options)
	if err != nil {
		return err
	}

	ctx := context.Background()

	s, _, closer, err := cmd.open(ctx, cfg)
	if err != nil {
		return err
	}

	defer closer()

	entity, err := s.Entity(cmd.tab)
	if err != nil {
		return err
	}

	err = replace(cmd.file, func(f *os.File) error {
		return report.TSV(ctx, s, entity, f)
	})

	if err != nil {
		return fmt.Errorf("error creating TSV file (%w)", err)
	}

	log.Infof(APP, "retrieved %v to file %v", cmd.tab, cmd.file)

	return nil
}
