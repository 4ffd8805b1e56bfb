package fs

import (
	"bytes"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"nexus/internal/kanban/models"
)

type labelFrontmatter struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Color string `yaml:"color,omitempty"`
}

type itemFrontmatter struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Completed bool    `yaml:"completed,omitempty"`
	Position  float64 `yaml:"position"`
}

type checklistFrontmatter struct {
	ID    string            `yaml:"id"`
	Title string            `yaml:"title"`
	Items []itemFrontmatter `yaml:"items,omitempty"`
}

type cardFrontmatter struct {
	ID         string                 `yaml:"id"`
	List       string                 `yaml:"list"`
	Position   float64                `yaml:"position"`
	Completed  bool                   `yaml:"completed,omitempty"`
	Cover      string                 `yaml:"cover,omitempty"`
	CoverSize  string                 `yaml:"cover_size,omitempty"`
	Labels     []labelFrontmatter     `yaml:"labels,omitempty"`
	Members    []string               `yaml:"members,omitempty"`
	Checklists []checklistFrontmatter `yaml:"checklists,omitempty"`
}

// WriteCard writes a card to a markdown file: YAML frontmatter, the title as
// a level one heading, then the description.
func WriteCard(card models.Card, path string) error {
	fm := cardFrontmatter{
		ID:        card.ID,
		List:      card.ListID,
		Position:  card.Position,
		Completed: card.Completed,
		Cover:     card.Cover,
		CoverSize: card.CoverSize,
		Members:   card.MemberIDs,
	}
	for _, l := range card.Labels {
		fm.Labels = append(fm.Labels, labelFrontmatter{ID: l.ID, Name: l.Name, Color: l.Color})
	}
	for _, cl := range card.Checklists {
		out := checklistFrontmatter{ID: cl.ID, Title: cl.Title}
		for _, item := range cl.Items {
			out.Items = append(out.Items, itemFrontmatter{ID: item.ID, Name: item.Name, Completed: item.Completed, Position: item.Position})
		}
		fm.Checklists = append(fm.Checklists, out)
	}

	yamlBytes, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(yamlBytes)
	buf.WriteString("---\n\n# ")
	buf.WriteString(card.Title)
	buf.WriteString("\n")
	if desc := strings.TrimSpace(card.Description); desc != "" {
		buf.WriteString("\n")
		buf.WriteString(desc)
		buf.WriteString("\n")
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}
