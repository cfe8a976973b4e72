// Package commands implements the savegame CLI commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
	"github.com/kurobon/gitsavegame/internal/config"
	"github.com/kurobon/gitsavegame/internal/git"
)

// Version is set at build time.
var Version = "dev"

type globalFlags struct {
	configPath string
	dir        string
	verbose    bool
}

// env is everything a command needs, built from flags and configuration.
type env struct {
	cfg        *config.Config
	logger     *slog.Logger
	repo       *git.Repository
	controller *checkpoint.Controller
}

// NewRootCommand builds the savegame command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "savegame",
		Short: "Save-game style checkpoints for a working directory",
		Long: `SaveGame checkpoints a working directory with git commits and shows the
most recent ones as memory-card slots you can load at any time.

Commands:
  list       Show the save slots
  save       Create a named save
  quicksave  Create a timestamped save
  restore    Load a save
  watch      Auto-save files when they are written
  serve      Run the HTTP save menu and the auto-save watcher`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default .savegame.yaml in . or $HOME)")
	rootCmd.PersistentFlags().StringVarP(&flags.dir, "dir", "C", "", "working directory to checkpoint (overrides work_dir)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newInitCommand(flags),
		newListCommand(flags),
		newSaveCommand(flags),
		newQuickSaveCommand(flags),
		newRestoreCommand(flags),
		newWatchCommand(flags),
		newServeCommand(flags),
		newVersionCommand(),
	)
	return rootCmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup loads configuration, opens the working directory and makes sure it
// is under version control. A failed initialization is logged, not fatal.
func setup(ctx context.Context, flags *globalFlags) (*env, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.dir != "" {
		cfg.WorkDir = flags.dir
	}

	logger := newLogger(flags.verbose)
	slog.SetDefault(logger)

	repo, err := git.OpenDir(cfg.WorkDir, git.WithIdentity(git.Identity{
		Name:  cfg.Author.Name,
		Email: cfg.Author.Email,
	}))
	if err != nil {
		return nil, err
	}

	controller := checkpoint.NewController(repo, checkpoint.WithLogger(logger))
	initialized, err := controller.EnsureRepository(ctx)
	if err != nil {
		logger.Error("Error initializing Git", "dir", repo.Root(), "error", err)
	} else if initialized {
		fmt.Fprintln(os.Stderr, "SaveGame initialized a new Git repository")
	}

	return &env{
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		controller: controller,
	}, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "savegame %s\n", Version)
		},
	}
}
