package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/uhppoted/uhppoted-lib/command"

	"github.com/uhppoted/uhppoted-app-tasks/commands"
	"github.com/uhppoted/uhppoted-app-tasks/log"
)

var cli = []uhppoted.Command{
	&commands.VersionCmd,
	&commands.RunCmd,
	&commands.GetCmd,
	&commands.PutCmd,
	&commands.ExportCmd,
	&commands.AuthoriseCmd,
}

var options = commands.Options{
	Debug: false,
}

var help = uhppoted.NewHelp(commands.APP, cli, nil)

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	if err := log.Init(options.Debug, false); err != nil {
		fmt.Printf("\nError initialising logging: %v\n\n", err)
		os.Exit(1)
	}

	defer log.Sync()

	cmd, err := uhppoted.Parse(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	if cmd == nil {
		help.Execute()
		os.Exit(1)
	}

	if err = cmd.Execute(&options); err != nil {
		log.Errorf("main", "ERROR: %v", err)
		log.Sync()
		os.Exit(1)
	}
}
