package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
	"github.com/kurobon/gitsavegame/internal/ui"
)

func newInitCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Put the working directory under version control if it is not already",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			ok, err := e.repo.IsRepository(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: %w", e.repo.Root(), checkpoint.ErrNotRepository)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Save repository ready in %s\n", e.repo.Root())
			return nil
		},
	}
}

func newListCommand(flags *globalFlags) *cobra.Command {
	var capacity int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the save slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if capacity <= 0 {
				capacity = e.cfg.MaxSaveSlots
			}
			if capacity > checkpoint.MaxCapacity {
				return fmt.Errorf("--slots %d: %w (max %d)", capacity, checkpoint.ErrCapacity, checkpoint.MaxCapacity)
			}
			slots := e.controller.ListSlots(cmd.Context(), capacity)
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderSlots(slots, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&capacity, "slots", "n", 0, "number of slots to show (default max_save_slots)")
	return cmd
}

func newSaveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name>...",
		Short: "Create a named save of the whole working tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.Join(args, " ")
			if strings.TrimSpace(label) == "" {
				return checkpoint.ErrEmptyLabel
			}
			e, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if _, err := e.controller.NamedSave(cmd.Context(), label); err != nil {
				return fmt.Errorf("failed to create save: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Save %q created!\n", label)
			return nil
		},
	}
}

func newQuickSaveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "quicksave",
		Short: "Create a timestamped save of the whole working tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if _, err := e.controller.QuickSave(cmd.Context()); err != nil {
				return fmt.Errorf("failed to create Quick Save: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Quick Save created!")
			return nil
		},
	}
}

func newRestoreCommand(flags *globalFlags) *cobra.Command {
	var (
		onDirty string
		label   string
	)

	cmd := &cobra.Command{
		Use:   "restore <id | slot>",
		Short: "Load a save, discarding or saving uncommitted changes first",
		Long: `Load a save by checkpoint id or by slot number as shown by 'list'.

When the working tree has unsaved changes you are asked whether to save them
first. Pass --on-dirty=cancel|discard|save (with --label) to answer up front.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}

			var confirm checkpoint.Confirmer = ui.TerminalConfirmer{}
			if onDirty != "" {
				choice, err := checkpoint.ParseDirtyChoice(onDirty)
				if err != nil {
					return err
				}
				confirm = checkpoint.StaticConfirmer{Choice: choice, Label: label}
			}

			id := resolveTarget(cmd, e, args[0])
			if id != "" && !checkpoint.IsCommitHash(id) {
				return fmt.Errorf("%q: %w", id, checkpoint.ErrInvalidID)
			}
			outcome, err := e.controller.Restore(cmd.Context(), id, confirm)
			if err != nil {
				return fmt.Errorf("failed to load save: %w", err)
			}
			switch outcome {
			case checkpoint.RestoreCompleted:
				fmt.Fprintln(cmd.OutOrStdout(), "Save loaded successfully!")
			case checkpoint.RestoreCancelled:
				fmt.Fprintln(cmd.OutOrStdout(), "Restore cancelled.")
			case checkpoint.RestoreSkipped:
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to load: empty slot.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&onDirty, "on-dirty", "", "answer for unsaved changes: cancel, discard or save")
	cmd.Flags().StringVar(&label, "label", "", "save name used with --on-dirty=save")
	return cmd
}

// resolveTarget maps a slot number to the checkpoint occupying it. Anything
// else is taken as a checkpoint id; an empty slot resolves to "".
func resolveTarget(cmd *cobra.Command, e *env, arg string) string {
	pos, err := strconv.Atoi(arg)
	if err != nil || pos < 1 || pos > e.cfg.MaxSaveSlots {
		return arg
	}
	slots := e.controller.ListSlots(cmd.Context(), e.cfg.MaxSaveSlots)
	if pos > len(slots) {
		return ""
	}
	return slots[pos-1].ID()
}
