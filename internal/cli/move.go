package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"nexus/internal/kanban/dnd"
	"nexus/internal/kanban/operations"
	kanbanview "nexus/internal/tui/kanban"
)

func newCardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Card commands",
	}
	cmd.AddCommand(newCardMoveCmd(app))
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List commands",
	}
	cmd.AddCommand(newListMoveCmd(app))
	return cmd
}

func newCardMoveCmd(app *App) *cobra.Command {
	var to string
	var index int
	cmd := &cobra.Command{
		Use:   "move <card-id>",
		Short: "Move a card to an index within a list (default: its own list)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			cardID := args[0]
			card, ok := d.Store.Card(cardID)
			if !ok {
				return fmt.Errorf("card %s not found on board %s", cardID, d.Store.BoardID())
			}
			if to == "" {
				to = card.ListID
			}
			commit, err := operations.MoveCardTo(d.Engine, d.Store, cardID, to, index)
			if err != nil {
				return err
			}
			if commit == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Card %s is already there\n", cardID)
				return nil
			}
			if err := settle(cmd.Context(), d, commit); err != nil {
				return fmt.Errorf("move card %s: %w", cardID, err)
			}
			moved, _ := d.Store.Card(cardID)
			fmt.Fprintf(cmd.OutOrStdout(), "Moved card %s to list %s at index %d (position %g)\n",
				cardID, moved.ListID, indexOf(d.Store.CardIDs(moved.ListID), cardID), moved.Position)
			if commit.Rebalanced() {
				fmt.Fprintf(cmd.OutOrStdout(), "Renumbered %d other cards\n", len(commit.Cards)-1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Destination list id")
	cmd.Flags().IntVar(&index, "index", 0, "Destination index among the list's other cards")
	return cmd
}

func newListMoveCmd(app *App) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "move <list-id>",
		Short: "Move a list to an index on the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			listID := args[0]
			if !d.Store.HasList(listID) {
				return fmt.Errorf("list %s not found on board %s", listID, d.Store.BoardID())
			}
			commit, err := operations.MoveListTo(d.Engine, listID, index, d.Store.ListIDs())
			if err != nil {
				return err
			}
			if commit == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "List %s is already there\n", listID)
				return nil
			}
			if err := settle(cmd.Context(), d, commit); err != nil {
				return fmt.Errorf("move list %s: %w", listID, err)
			}
			moved, _ := d.Store.List(listID)
			fmt.Fprintf(cmd.OutOrStdout(), "Moved list %s to index %d (position %g)\n",
				listID, d.Store.ListIndex(listID), moved.Position)
			if commit.Rebalanced() {
				fmt.Fprintf(cmd.OutOrStdout(), "Renumbered %d other lists\n", len(commit.Lists)-1)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Destination index")
	return cmd
}

// settle persists a commit and waits for its outcome, as the TUI would.
func settle(ctx context.Context, d kanbanview.Deps, commit *dnd.Commit) error {
	res := d.Syncer.Commit(ctx, *commit)
	d.Engine.Settle(res)
	return res.Err
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
