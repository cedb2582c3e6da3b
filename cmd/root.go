package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/market-ar/market/internal/backend"
	"github.com/market-ar/market/internal/config"
	"github.com/market-ar/market/internal/storage"
	"github.com/market-ar/market/pkg/ui"
)

// app holds what every subcommand shares. The store is opened on first use
// so commands that only talk to the backend never touch the database.
type app struct {
	configPath string
	verbose    bool

	cfg   *config.Config
	store *storage.ListingStore
}

func (a *app) setup() error {
	// Load .env file if present (ignore errors)
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if a.verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(handler)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	ui.SetTheme(cfg.ColorTheme)

	slog.Debug("Loaded config", "path", a.configPath, "api_url", cfg.APIURL, "db", cfg.DBPath)
	return nil
}

func (a *app) openStore() (*storage.ListingStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := storage.Open(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open listing store: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *app) api() *backend.Client {
	return backend.NewClient(a.cfg.APIURL, a.cfg.HTTPTimeout)
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		slog.Error("Unable to close listing store", "err", err)
	}
	a.store = nil
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "market",
		Short: "Furniture marketplace catalog and 3D asset workflow",
		Long: `Market manages a local catalog of furniture listings and drives the
backend workflows behind it: asset uploads, 3D model conversion and
photogrammetry reconstruction from photo sets.

Configuration is read from market.yaml (optional) and MARKET_* environment
variables. A .env file in the working directory is loaded first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "Path to YAML config file")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newListingsCmd(a))
	cmd.AddCommand(newUploadCmd(a))
	cmd.AddCommand(newConvertCmd(a))
	cmd.AddCommand(newRecapCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}
