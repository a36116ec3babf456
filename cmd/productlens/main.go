// Package main is the productlens command line client. It runs analyses
// against a local session store without the HTTP server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ashureev/productlens/internal/config"
	"github.com/ashureev/productlens/internal/llm"
	"github.com/ashureev/productlens/internal/orchestrator"
	"github.com/ashureev/productlens/internal/store"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "productlens",
		Short:         "Analyze product ideas from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err == nil {
				slog.Debug("Loaded .env file")
			}
			verbose := v.GetBool("verbose")
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.PersistentFlags().String("store", config.StoreSQLite, "session store: memory or sqlite")
	root.PersistentFlags().String("db", "./data/productlens.db", "sqlite database path")
	root.PersistentFlags().StringP("format", "o", "json", "output format: json or yaml")
	root.PersistentFlags().BoolP("verbose", "v", false, "log analysis progress to stderr")

	v.SetEnvPrefix("PRODUCTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newAnalyzeCmd(v))
	root.AddCommand(newListCmd(v))
	root.AddCommand(newExportCmd(v))
	root.AddCommand(newVersionCmd())
	return root
}

// app bundles the services a command needs.
type app struct {
	repo store.Repository
	svc  *orchestrator.Service
}

func loadApp(v *viper.Viper) (*app, error) {
	var repo store.Repository
	switch driver := strings.ToLower(v.GetString("store")); driver {
	case config.StoreMemory:
		repo = store.NewMemory()
	case config.StoreSQLite:
		sqlite, err := store.NewSQLite(v.GetString("db"))
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		repo = sqlite
	default:
		return nil, fmt.Errorf("unknown store %q (supported: memory, sqlite)", driver)
	}

	orch := orchestrator.New(repo, llm.NewResolver(), nil)
	return &app{repo: repo, svc: orchestrator.NewService(repo, orch, nil)}, nil
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		slog.Warn("Failed to close store", "error", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of productlens",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "productlens %s\n", version)
		},
	}
}
