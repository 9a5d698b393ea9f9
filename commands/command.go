package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/uhppoted/uhppoted-app-tasks/cache"
	"github.com/uhppoted/uhppoted-app-tasks/config"
	"github.com/uhppoted/uhppoted-app-tasks/gsheets"
	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/memory"
	"github.com/uhppoted/uhppoted-app-tasks/model"
	"github.com/uhppoted/uhppoted-app-tasks/sqlite"
	"github.com/uhppoted/uhppoted-app-tasks/store"
)

const APP = "uhppoted-app-tasks"

type Options struct {
	Debug bool
}

// command holds the options common to every command that opens the spreadsheet.
type command struct {
	secrets string
	backend string
	db      string
	debug   bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.secrets, "secrets", c.secrets, "YAML file with the spreadsheet key, credentials and settings")
	flagset.StringVar(&c.backend, "backend", c.backend, "Spreadsheet backend (sheets, sqlite or memory). Defaults to the backend in the secrets file")
	flagset.StringVar(&c.db, "db", c.db, "SQLite database file for the 'sqlite' backend")

	return flagset
}

// configure loads the secrets file, applies the command line overrides and initialises logging.
func (c *command) configure(options *Options) (*config.Config, error) {
	cfg, err := config.Load(c.secrets)
	if err != nil {
		return nil, err
	}

	if b := strings.TrimSpace(c.backend); b != "" {
		cfg.Backend = b
	}

	if db := strings.TrimSpace(c.db); db != "" {
		cfg.SQLite.Database = db
	} else if cfg.SQLite.Database == "" {
		cfg.SQLite.Database = DEFAULT_DB
	}

	c.debug = options.Debug || cfg.Logging.Debug

	if err := log.Init(c.debug, cfg.Logging.JSON); err != nil {
		return nil, err
	}

	return cfg, nil
}

// open returns a store over the configured backend and a function to release it.
func (c *command) open(ctx context.Context, cfg *config.Config) (*store.Store, store.Backend, func(), error) {
	tabs := cfg.StoreTabs()
	ttl := cfg.StoreTTL()

	switch cfg.Backend {
	case config.BackendSheets:
		key, err := cfg.SpreadsheetKey()
		if err != nil {
			return nil, nil, nil, err
		}

		if c.debug {
			log.Debugf(APP, "spreadsheet:%v  credentials:%v", key, cfg.Google.Credentials)
		}

		r := gsheets.NewResource(key, cfg.Credentials())

		return store.New(r, cache.NewCache(), tabs, ttl), r, func() {}, nil

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Database), 0770); err != nil {
			return nil, nil, nil, err
		}

		w, err := sqlite.Open(ctx, cfg.SQLite.Database, headers(tabs))
		if err != nil {
			return nil, nil, nil, err
		}

		closer := func() {
			if err := w.Close(); err != nil {
				log.Warnf(APP, "error closing %v (%v)", cfg.SQLite.Database, err)
			}
		}

		return store.New(w, cache.NewCache(), tabs, ttl), w, closer, nil

	case config.BackendMemory:
		w := memory.NewWorkbook()
		for tab, header := range headers(tabs) {
			w.AddTab(tab, header)
		}

		log.Warnf(APP, "using in-memory backend - changes will be lost on exit")

		return store.New(w, cache.NewCache(), tabs, ttl), w, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("invalid backend '%v' - expected one of sheets, sqlite or memory", cfg.Backend)
	}
}

func headers(tabs store.Tabs) map[string][]string {
	return map[string][]string{
		tabs.Tasks:      model.TaskLayout.Header(),
		tabs.Categories: model.CategoryLayout.Header(),
		tabs.Users:      model.UserLayout.Header(),
		tabs.Comments:   model.CommentLayout.Header(),
	}
}

// replace writes a file via a temporary file in the same directory so that a failed write does
// not leave a partial file behind.
func replace(file string, write func(*os.File) error) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(file))
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := write(tmp); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), file)
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flagset.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
	}

	fmt.Println("  Options:")
	fmt.Println()
	fmt.Println("    --debug Displays internal information for diagnosing errors")
}
