package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"nexus/internal/kanban/fs"
	"nexus/internal/kanban/models"
	"nexus/internal/kanban/operations"
	"nexus/internal/kanban/store"
	"nexus/internal/logs"
)

func newBoardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect and export a board",
	}
	cmd.AddCommand(newBoardCreateCmd(app))
	cmd.AddCommand(newBoardShowCmd(app))
	cmd.AddCommand(newBoardExportCmd(app))
	cmd.AddCommand(newBoardExportsCmd(app))
	return cmd
}

func newBoardCreateCmd(app *App) *cobra.Command {
	var background, visibility string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := operations.ValidateBoard(args[0], background, visibility)
			if err != nil {
				return err
			}
			board, err := app.client.CreateBoard(cmd.Context(), req)
			if err != nil {
				return err
			}
			logs.Logger.WithField("board_id", board.ID).Info("board created")
			fmt.Fprintf(cmd.OutOrStdout(), "Created board %s (%s)\n", board.Name, board.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Open it with: nexus --board %s\n", board.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&background, "background", "#0079bf", "Background color or image URL")
	cmd.Flags().StringVar(&visibility, "visibility", "private", "private, team or public")
	return cmd
}

func newBoardShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the board's lists and cards in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), d.Store)
			return nil
		},
	}
}

func newBoardExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export [dir]",
		Short: "Write the board as markdown files (board.md and cards/)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			dir := app.cfg.ExportPath(d.Store.BoardID())
			if len(args) == 1 {
				dir = args[0]
			}
			export := fs.Export{
				Board: d.Store.Metadata(),
				Lists: d.Store.Lists(),
				Cards: d.Store.Cards(),
			}
			if err := fs.WriteBoard(dir, export); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d lists and %d cards to %s\n", len(export.Lists), len(export.Cards), dir)
			return nil
		},
	}
}

func newBoardExportsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exports [root]",
		Short: "List board exports found under root (default: export_dir)",
		Args:  cobra.MaximumNArgs(1),
		// Reads local files only; no board or API is needed.
		RunE: func(cmd *cobra.Command, args []string) error {
			root := app.cfg.ExportDir
			if len(args) == 1 {
				root = args[0]
			}
			if root == "" {
				root = "."
			}
			dirs, err := fs.ScanExports(root)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintf(out, "No exports under %s\n", root)
				return nil
			}
			for _, dir := range dirs {
				export, err := fs.ReadBoard(dir)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", dir, err)
					continue
				}
				fmt.Fprintf(out, "%s  %s (%d lists, %d cards)  %s\n",
					export.Board.ID, export.Board.Name, len(export.Lists), len(export.Cards), dir)
			}
			return nil
		},
	}
}

func printBoard(w io.Writer, s *store.Store) {
	meta := s.Metadata()
	fmt.Fprintf(w, "%s (%s)\n", meta.Name, meta.ID)
	for _, list := range s.Lists() {
		fmt.Fprintf(w, "\n%s  [%s @ %g]\n", list.Name, list.ID, list.Position)
		cards := s.CardsForList(list.ID)
		if len(cards) == 0 {
			fmt.Fprintln(w, "  (empty)")
		}
		for _, card := range cards {
			fmt.Fprintf(w, "  %s\n", cardLine(meta, card))
		}
	}
}

func cardLine(meta models.Board, card models.Card) string {
	check := "[ ]"
	if card.Completed {
		check = "[x]"
	}
	parts := []string{check, card.Title}
	for _, l := range card.Labels {
		parts = append(parts, "#"+l.Name)
	}
	for _, id := range card.MemberIDs {
		if u := meta.GetMember(id); u != nil {
			parts = append(parts, "@"+u.Username)
		}
	}
	if done, total := card.ChecklistProgress(); total > 0 {
		parts = append(parts, fmt.Sprintf("(%d/%d)", done, total))
	}
	parts = append(parts, fmt.Sprintf("[%s @ %g]", card.ID, card.Position))
	return strings.Join(parts, " ")
}
