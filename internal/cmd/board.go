package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/mindnode/internal/board"
	"github.com/Iron-Ham/mindnode/internal/model"
)

var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"boards"},
	Short:   "Manage planning boards",
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards, starred first",
	Long: `List boards. Starred boards come first, then the most recently updated.

Use --match with a glob pattern to filter by name, e.g.:
  mindnode board list --match 'Q[34] *'`,
	Args: cobra.NoArgs,
	RunE: runBoardList,
}

var boardCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty board and make it active",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardCreate,
}

var boardShowCmd = &cobra.Command{
	Use:   "show <board>",
	Short: "Show a board and its nodes",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardShow,
}

var boardUpdateCmd = &cobra.Command{
	Use:   "update <board>",
	Short: "Change a board's name, description, password or sharing",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardUpdate,
}

var boardDeleteCmd = &cobra.Command{
	Use:   "delete <board>",
	Short: "Delete a board",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardDelete,
}

var boardDuplicateCmd = &cobra.Command{
	Use:   "duplicate <board>",
	Short: "Copy a board with all of its nodes and connections",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardDuplicate,
}

var boardStarCmd = &cobra.Command{
	Use:   "star <board>",
	Short: "Toggle a board's star",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardStar,
}

var boardUseCmd = &cobra.Command{
	Use:   "use [board]",
	Short: "Set the active board, or clear it with --clear",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBoardUse,
}

var (
	listStarred   bool
	listMatch     string
	listJSON      bool
	showJSON      bool
	createDesc    string
	updateName    string
	updateDesc    string
	updatePass    string
	updateNoPass  bool
	updateSharing string
	useClear      bool
)

func init() {
	boardListCmd.Flags().BoolVar(&listStarred, "starred", false, "Only list starred boards")
	boardListCmd.Flags().StringVar(&listMatch, "match", "", "Only list boards whose name matches a glob pattern")
	boardListCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	boardCreateCmd.Flags().StringVarP(&createDesc, "description", "d", "", "Board description")

	boardShowCmd.Flags().BoolVar(&showJSON, "json", false, "Output the full board as JSON")

	boardUpdateCmd.Flags().StringVar(&updateName, "name", "", "New name")
	boardUpdateCmd.Flags().StringVar(&updateDesc, "description", "", "New description")
	boardUpdateCmd.Flags().StringVar(&updatePass, "set-password", "", "Lock the board with a password")
	boardUpdateCmd.Flags().BoolVar(&updateNoPass, "clear-password", false, "Remove the board's password")
	boardUpdateCmd.Flags().StringVar(&updateSharing, "shared-access", "", "Sharing: viewer, editor or private")

	boardUseCmd.Flags().BoolVar(&useClear, "clear", false, "Clear the active board")

	boardCmd.AddCommand(boardListCmd, boardCreateCmd, boardShowCmd, boardUpdateCmd,
		boardDeleteCmd, boardDuplicateCmd, boardStarCmd, boardUseCmd)
	rootCmd.AddCommand(boardCmd)
}

func runBoardList(cmd *cobra.Command, args []string) error {
	filter := board.Filter{Starred: listStarred}
	if listMatch != "" {
		g, err := glob.Compile(listMatch)
		if err != nil {
			return fmt.Errorf("invalid --match pattern: %w", err)
		}
		filter.Match = g
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	summaries := a.store.Summaries(filter)
	out := cmd.OutOrStdout()
	if listJSON {
		return writeJSON(out, summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No boards"))
		return nil
	}

	active := a.store.ActiveBoardID()
	width := terminalWidth(100)
	for _, s := range summaries {
		marker := "  "
		if s.ID == active {
			marker = titleStyle.Render("▸ ")
		}
		flags := ""
		if s.Starred {
			flags += warningStyle.Render("★ ")
		}
		if s.Locked {
			flags += mutedStyle.Render("🔒 ")
		}
		fmt.Fprintf(out, "%s%s%s %s\n", marker, flags, titleStyle.Render(s.Name),
			mutedStyle.Render(fmt.Sprintf("(%d nodes, updated %s)", s.NodeCount, s.UpdatedAt.Local().Format("2006-01-02 15:04"))))
		if s.Description != "" {
			fmt.Fprintf(out, "    %s\n", mutedStyle.Render(truncate(s.Description, width-4)))
		}
		fmt.Fprintf(out, "    %s\n", mutedStyle.Render(s.ID))
	}
	return nil
}

func runBoardCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	id, err := a.store.CreateBoard(cmd.Context(), args[0], createDesc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Created board"), id)
	return nil
}

// resolveUnlocked finds a board by id or name and checks its password.
func resolveUnlocked(cmd *cobra.Command, a *app, ref string) (model.Board, error) {
	b, err := a.store.Resolve(ref)
	if err != nil {
		return model.Board{}, err
	}
	if err := unlock(cmd, a.store, b); err != nil {
		return model.Board{}, err
	}
	return b, nil
}

func runBoardShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	b, err := resolveUnlocked(cmd, a, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if showJSON {
		b.Password = ""
		return writeJSON(out, b)
	}
	printBoard(out, b, a.store.AppSettings())
	return nil
}

func printBoard(out io.Writer, b model.Board, settings model.AppSettings) {
	fmt.Fprintln(out, titleStyle.Render(b.Name))
	if b.Description != "" {
		fmt.Fprintln(out, mutedStyle.Render(b.Description))
	}
	fmt.Fprintf(out, "%s %s  %s %s\n",
		headerStyle.Render("id"), b.ID,
		headerStyle.Render("updated"), b.UpdatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintln(out)

	glossary := b.EffectiveGlossary(settings)
	for _, n := range b.Nodes {
		line := fmt.Sprintf("  %-10s %s", n.Type, firstLine(n.Content))
		if n.Type == model.NodeTask {
			line += " " + statusStyle(n.EffectiveStatus()).Render("["+string(n.EffectiveStatus())+"]")
		}
		if n.DateTime != nil {
			line += " " + mutedStyle.Render(n.DateTime.Local().Format("2006-01-02"))
		}
		if label := glossary.Label(n.BorderColor); label != "" && n.BorderColor != model.DefaultBorderColor {
			line += " " + swatchStyle(n.BorderColor).Render("● "+label)
		}
		fmt.Fprintln(out, line)
	}

	byID := make(map[string]string, len(b.Nodes))
	for _, n := range b.Nodes {
		byID[n.ID] = firstLine(n.Content)
	}
	if len(b.Connections) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("connections"))
	}
	for _, c := range b.Connections {
		src, ok1 := byID[c.Source]
		dst, ok2 := byID[c.Target]
		if !ok1 || !ok2 {
			continue
		}
		line := fmt.Sprintf("  %s → %s", src, dst)
		if c.Label != "" {
			line += mutedStyle.Render(" (" + c.Label + ")")
		}
		fmt.Fprintln(out, line)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}

func runBoardUpdate(cmd *cobra.Command, args []string) error {
	var patch board.Patch
	flags := cmd.Flags()
	if flags.Changed("name") {
		patch.Name = &updateName
	}
	if flags.Changed("description") {
		patch.Description = &updateDesc
	}
	if flags.Changed("set-password") {
		patch.Password = &updatePass
	}
	if updateNoPass {
		empty := ""
		patch.Password = &empty
	}
	if flags.Changed("shared-access") {
		access := model.SharedAccess(updateSharing)
		patch.SharedAccess = &access
	}
	if patch.Empty() {
		return fmt.Errorf("nothing to update; see 'mindnode board update --help'")
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	b, err := resolveUnlocked(cmd, a, args[0])
	if err != nil {
		return err
	}
	if err := a.store.UpdateBoard(cmd.Context(), b.ID, patch); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", successStyle.Render("Updated"), b.ID, strings.Join(patch.Fields(), ", "))
	return nil
}

func runBoardDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	b, err := a.store.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := a.store.DeleteBoard(cmd.Context(), b.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Deleted"), b.Name)
	return nil
}

func runBoardDuplicate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	b, err := a.store.Resolve(args[0])
	if err != nil {
		return err
	}
	id, err := a.store.DuplicateBoard(cmd.Context(), b.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Created copy"), id)
	return nil
}

func runBoardStar(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	b, err := a.store.Resolve(args[0])
	if err != nil {
		return err
	}
	starred, err := a.store.ToggleStar(cmd.Context(), b.ID)
	if err != nil {
		return err
	}
	if starred {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", warningStyle.Render("★ Starred"), b.Name)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Unstarred %s\n", b.Name)
	}
	return nil
}

func runBoardUse(cmd *cobra.Command, args []string) error {
	if useClear == (len(args) == 1) {
		return fmt.Errorf("give either a board or --clear")
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	if useClear {
		return a.store.SetActiveBoard(cmd.Context(), "")
	}
	b, err := a.store.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := a.store.SetActiveBoard(cmd.Context(), b.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Active board: %s\n", titleStyle.Render(b.Name))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
