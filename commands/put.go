package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/report"
)

var PutCmd = Put{
	command: command{
		secrets: DEFAULT_SECRETS,
	},
}

type Put struct {
	command
	tab  string
	file string
}

func (cmd *Put) Name() string {
	return "put"
}

func (cmd *Put) Description() string {
	return "Appends the records in a TSV file to a spreadsheet tab"
}

func (cmd *Put) Usage() string {
	return "--tab <tab> --file <file>"
}

func (cmd *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] put [options] --tab <tab> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Appends the records in a TSV file to a spreadsheet tab. The TSV header must include the")
	fmt.Println("  identifier column of the tab (ID for Tareas and Comentarios, Nombre for Categorias and Usuarios).")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s put --secrets "secrets.yaml" --tab Usuarios --file "usuarios.tsv"`+"\n", APP)
	fmt.Println()
}

func (cmd *Put) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("put")

	flagset.StringVar(&cmd.tab, "tab", cmd.tab, "Spreadsheet tab e.g. 'Usuarios'")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file")

	return flagset
}

func (cmd *Put) Execute(args ...any) error {
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

	layout, err := s.Layout(entity)
	if err != nil {
		return err
	}

	f, err := os.Open(cmd.file)
	if err != nil {
		return err
	}

	defer f.Close()

	records, err := report.ReadTSV(f, layout)
	if err != nil {
		return err
	}

	n, err := s.Import(ctx, entity, records)
	if err != nil {
		return err
	}

	log.Infof(APP, "uploaded %v records from %v to %v", n, cmd.file, cmd.tab)

	return nil
}
