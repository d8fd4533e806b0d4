package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/mindnode/internal/layout"
)

var layoutCmd = &cobra.Command{
	Use:   "layout <board>",
	Short: "Re-run automatic layout on a board",
	Long: `Recompute node positions and connection handles for a board.

The direction defaults to layout.direction from the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runLayout,
}

var layoutDirection string

func init() {
	layoutCmd.Flags().StringVar(&layoutDirection, "direction", "", "Flow direction: TB or LR")
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	dir := a.direction()
	if layoutDirection != "" {
		if dir, err = layout.ParseDirection(layoutDirection); err != nil {
			return err
		}
	}

	b, err := resolveUnlocked(cmd, a, args[0])
	if err != nil {
		return err
	}
	if err := a.store.Relayout(cmd.Context(), b.ID, dir); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", successStyle.Render("Laid out"), b.Name, dir)
	return nil
}
