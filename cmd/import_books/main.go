// Command import_books seeds an empty library with accounts, books and a few
// open borrows from a JSON catalog. Without --catalog it uses the built-in one.
package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"library-lending/internal/config"
	"library-lending/internal/logger"
	"library-lending/library"
)

//go:embed catalog.json
var defaultCatalog []byte

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var dbPath, catalogPath string
	cmd := &cobra.Command{
		Use:           "import_books",
		Short:         "Seed an empty library from a JSON catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return importCatalog(cmd.Context(), cfg, dbPath, catalogPath, out)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", cfg.Database.Path, "path to the SQLite database")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog JSON file (default: built-in catalog)")
	cmd.SetArgs(args)
	cmd.SetOut(out)
	return cmd.ExecuteContext(ctx)
}

func importCatalog(ctx context.Context, cfg *config.Config, dbPath, catalogPath string, out io.Writer) error {
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		Output:     os.Stderr,
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
	ctx = logger.ContextWithLogger(ctx, log)

	catalog, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	manager, err := library.NewLibraryManager(dbPath, library.NewBcryptHasher(cfg.Auth.BcryptCost),
		library.WithBusyTimeout(cfg.Database.BusyTimeout))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer manager.Close()

	fmt.Fprintf(out, "Importing catalog into %s...\n", dbPath)
	rep, err := manager.Seed(ctx, catalog)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Users: %d  Books: %d  Borrows: %d  Skipped: %d  Errors: %d\n",
		rep.Users, rep.Books, rep.Borrows, rep.Skipped, rep.Failures)

	if rep.Books > 0 {
		books, err := manager.Books().List(ctx, library.BookFilter{})
		if err != nil {
			return fmt.Errorf("list books: %w", err)
		}
		fmt.Fprintln(out, "\nImported books:")
		fmt.Fprintf(out, "%-36s %-40s %-25s %s\n", "ID", "Title", "Author", "Status")
		fmt.Fprintln(out, strings.Repeat("-", 112))
		for _, b := range books {
			fmt.Fprintf(out, "%-36s %-40s %-25s %s\n", b.ID, truncateString(b.Title, 40), truncateString(b.Author, 25), b.Status)
		}
	}
	return nil
}

func loadCatalog(path string) (library.Catalog, error) {
	var c library.Catalog
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read catalog: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("parse catalog: %w", err)
	}
	return c, nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
