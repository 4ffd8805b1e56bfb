// Package fs exports a board to a directory of markdown files and reads such
// an export back.
//
// The layout is board.md, holding the board name and one level two heading
// per list with links to its cards, plus one file per card under cards/.
package fs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"nexus/internal/kanban/models"
)

// Export is a board with its lists and cards, each slice in display order.
type Export struct {
	Board models.Board
	Lists []models.List
	Cards []models.Card
}

// CardsForList returns the export's cards of one list in order.
func (e Export) CardsForList(listID string) []models.Card {
	var out []models.Card
	for _, c := range e.Cards {
		if c.ListID == listID {
			out = append(out, c)
		}
	}
	return out
}

type listFrontmatter struct {
	ID       string  `yaml:"id"`
	Position float64 `yaml:"position"`
}

type boardFrontmatter struct {
	ID    string            `yaml:"id"`
	Lists []listFrontmatter `yaml:"lists,omitempty"`
}

// WriteBoard writes board.md and the card files into dir, creating it if
// needed.
func WriteBoard(dir string, export Export) error {
	cardsDir := filepath.Join(dir, "cards")
	if err := os.MkdirAll(cardsDir, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	fm := boardFrontmatter{ID: export.Board.ID}
	for _, l := range export.Lists {
		fm.Lists = append(fm.Lists, listFrontmatter{ID: l.ID, Position: l.Position})
	}
	yamlBytes, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(yamlBytes)
	buf.WriteString("---\n\n# ")
	buf.WriteString(export.Board.Name)
	buf.WriteString("\n\n")

	taken := map[string]bool{}
	for _, list := range export.Lists {
		buf.WriteString("## ")
		buf.WriteString(list.Name)
		buf.WriteString("\n\n")

		for _, card := range export.CardsForList(list.ID) {
			filename := UniqueFilename(ToSnakeCase(card.Title), cardsDir, taken)
			taken[filename] = true
			if err := WriteCard(card, filepath.Join(cardsDir, filename)); err != nil {
				return fmt.Errorf("write card %s: %w", card.ID, err)
			}

			buf.WriteString("[")
			buf.WriteString(card.Title)
			buf.WriteString("](./cards/")
			buf.WriteString(filename)
			buf.WriteString(")\n\n")
		}
	}

	return os.WriteFile(filepath.Join(dir, "board.md"), buf.Bytes(), 0644)
}
