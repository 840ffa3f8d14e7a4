package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/claude/calilog/internal/backend"
	"github.com/claude/calilog/internal/config"
	"github.com/claude/calilog/internal/importer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configPath string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:          "calilog-run",
		Short:        "Run calisthenics programs and interval circuits in the terminal",
		Version:      Version,
		SilenceUsage: true,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List programs and interval programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(env *env) error {
				programs, err := env.store.ListPrograms(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing programs: %w", err)
				}
				circuits, err := env.store.ListIntervalPrograms(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing interval programs: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderCatalog(programs, circuits))
				return nil
			})
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show training log statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(env *env) error {
				stats, err := env.store.GetDataStats(cmd.Context())
				if err != nil {
					return fmt.Errorf("loading stats: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
				return nil
			})
		},
	}

	dryRun bool

	importCmd = &cobra.Command{
		Use:   "import <file|dir>",
		Short: "Import exercises and programs from YAML catalog files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(env *env) error {
				stats, err := importer.New(env.store, env.log, dryRun).Import(cmd.Context(), args[0])
				if stats != nil {
					fmt.Fprintln(cmd.OutOrStdout(), renderImport(stats, dryRun))
				}
				return err
			})
		},
	}

	programCmd = &cobra.Command{
		Use:   "program <id>",
		Short: "Run a program workout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(env *env) error {
				return runProgram(cmd.Context(), env, id, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}

	intervalCmd = &cobra.Command{
		Use:   "interval <id>",
		Short: "Run an interval circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(env *env) error {
				return runInterval(cmd.Context(), env, id, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without writing")
	rootCmd.AddCommand(listCmd, statsCmd, importCmd, programCmd, intervalCmd)
}

// env is what every command runs against.
type env struct {
	cfg   *config.Config
	store backend.Store
	log   *slog.Logger
}

func withStore(ctx context.Context, fn func(*env) error) error {
	var w io.Writer = io.Discard
	if verbose {
		w = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := backend.Migrate(cfg.Database, "migrations"); err != nil {
		return err
	}
	store, err := backend.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(&env{cfg: cfg, store: store, log: log})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
