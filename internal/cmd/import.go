package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/mindnode/internal/plan"
)

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Create a board from an AI-authored plan",
	Long: `Import a JSON plan and lay it out as a new board.

The plan may be wrapped in a markdown code fence, as assistants usually
reply. Use '-' to read from stdin:

  pbpaste | mindnode import -

Run 'mindnode prompt' for instructions to give the assistant.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var promptCmd = &cobra.Command{
	Use:   "prompt [objective...]",
	Short: "Print the planning prompt for an AI assistant",
	RunE:  runPrompt,
}

func init() {
	rootCmd.AddCommand(importCmd, promptCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	id, err := a.store.ImportPlan(cmd.Context(), raw)
	if err != nil {
		return err
	}
	b, err := a.store.Board(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
		successStyle.Render("Imported"),
		titleStyle.Render(b.Name),
		mutedStyle.Render(fmt.Sprintf("(%s, %d nodes, %d connections)", id, len(b.Nodes), len(b.Connections))))
	return nil
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read plan: %w", err)
	}
	return string(data), nil
}

func runPrompt(cmd *cobra.Command, args []string) error {
	text, err := plan.Prompt(strings.Join(args, " "))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}
