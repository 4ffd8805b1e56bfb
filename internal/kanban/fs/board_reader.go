package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"nexus/internal/kanban/models"
	"nexus/internal/kanban/position"
)

// ReadBoard reads an export written by WriteBoard. Headings and links give
// the order; a card's list is the heading it is linked under. Lists missing
// from the frontmatter get ids from their names and evenly spaced positions.
func ReadBoard(dir string) (Export, error) {
	content, err := os.ReadFile(filepath.Join(dir, "board.md"))
	if err != nil {
		return Export{}, err
	}

	var fm boardFrontmatter
	body, err := splitFrontmatter(content, &fm)
	if err != nil {
		return Export{}, fmt.Errorf("board.md: %w", err)
	}

	export := Export{
		Board: models.Board{ID: fm.ID},
		Lists: []models.List{},
		Cards: []models.Card{},
	}

	currentList := ""
	var walkErr error
	doc := goldmark.DefaultParser().Parse(text.NewReader(body))
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			headingText := string(node.Text(body))
			if node.Level == 1 {
				export.Board.Name = headingText
			} else if node.Level == 2 {
				i := len(export.Lists)
				list := models.List{
					ID:       ToSnakeCase(headingText),
					BoardID:  fm.ID,
					Name:     headingText,
					Position: float64(i+1) * position.Base,
				}
				if i < len(fm.Lists) {
					list.ID = fm.Lists[i].ID
					list.Position = fm.Lists[i].Position
				}
				export.Lists = append(export.Lists, list)
				currentList = list.ID
			}

		case *ast.Link:
			dest := string(node.Destination)
			if !strings.HasPrefix(dest, "./cards/") && !strings.HasPrefix(dest, "cards/") {
				return ast.WalkContinue, nil
			}
			if currentList == "" {
				walkErr = fmt.Errorf("card %s is not under a list heading", dest)
				return ast.WalkStop, nil
			}
			card, err := ReadCard(filepath.Join(dir, dest))
			if err != nil {
				walkErr = err
				return ast.WalkStop, nil
			}
			if card.ID == "" {
				card.ID = strings.TrimSuffix(filepath.Base(dest), ".md")
			}
			card.BoardID = fm.ID
			card.ListID = currentList
			export.Cards = append(export.Cards, card)
		}

		return ast.WalkContinue, nil
	})
	if walkErr != nil {
		return Export{}, walkErr
	}

	return export, nil
}
