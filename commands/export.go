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

var ExportCmd = Export{
	command: command{
		secrets: DEFAULT_SECRETS,
	},
	file: time.Now().Format("2006-01-02T150405.xlsx"),
}

type Export struct {
	command
	file string
}

func (cmd *Export) Name() string {
	return "export"
}

func (cmd *Export) Description() string {
	return "Exports the tasks, categories, users and comments to an XLSX workbook"
}

func (cmd *Export) Usage() string {
	return "[--file <file>]"
}

func (cmd *Export) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] export [options] --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Writes every tab plus a task summary sheet to an XLSX workbook")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s export --secrets "secrets.yaml" --file "planilla.xlsx"`+"\n", APP)
	fmt.Println()
}

func (cmd *Export) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("export")

	flagset.StringVar(&cmd.file, "file", cmd.file, "XLSX file name. Defaults to '<yyyy-mm-ddTHHmmss>.xlsx'")

	return flagset
}

func (cmd *Export) Execute(args ...any) error {
	options := args[0].(*Options)

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

	err = replace(cmd.file, func(f *os.File) error {
		return report.Export(ctx, s, f, time.Now())
	})

	if err != nil {
		return fmt.Errorf("error creating XLSX file (%w)", err)
	}

	log.Infof(APP, "exported spreadsheet to file %v", cmd.file)

	return nil
}
