package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"library-lending/internal/config"
	"library-lending/internal/logger"
	"library-lending/library"
)

// app carries the state shared by every command: configuration, the logger
// and the opened library.
type app struct {
	cfg *config.Config
	log logger.Logger
	mgr *library.LibraryManager

	// persistent flags
	dbPath   string
	logLevel string
	logJSON  bool
	jsonOut  bool
	actAs    string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "library",
		Short: "Library lending backend",
		Long: `Manage a library catalogue, its members, and the borrows and
reservations that move books between them.

Run "library serve" for the HTTP API, or use the book, user and lending
commands directly against the database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.dbPath, "db", "", "path to the SQLite database (overrides LIBRARY_DATABASE_PATH)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.logJSON, "log-json", false, "emit logs as JSON")
	flags.BoolVar(&a.jsonOut, "json", false, "print results as JSON")
	flags.StringVar(&a.actAs, "as", "", "username to act as for lending commands")

	root.AddCommand(
		a.serveCmd(),
		a.bookCmd(),
		a.userCmd(),
		a.borrowCmd(),
		a.returnCmd(),
		a.reserveCmd(),
		a.cancelCmd(),
		a.borrowsCmd(),
		a.reservationsCmd(),
	)
	return root
}

// open loads configuration, applies flag overrides and opens the database.
func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database.Path = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = a.logJSON
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	a.log = logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		Output:     cmd.ErrOrStderr(),
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
	logger.SetDefault(a.log)
	cmd.SetContext(logger.ContextWithLogger(cmdContext(cmd), a.log))

	a.mgr, err = library.NewLibraryManager(
		cfg.Database.Path,
		library.NewBcryptHasher(cfg.Auth.BcryptCost),
		library.WithBusyTimeout(cfg.Database.BusyTimeout),
	)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	a.log.Debug("database opened", "path", cfg.Database.Path)
	return nil
}

func (a *app) close() error {
	if a.mgr == nil {
		return nil
	}
	err := a.mgr.Close()
	a.mgr = nil
	return err
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	// PersistentPostRunE is skipped when a command fails.
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
