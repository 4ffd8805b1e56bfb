package fs

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"nexus/internal/kanban/models"
)

// ReadCard reads a card file written by WriteCard.
func ReadCard(cardPath string) (models.Card, error) {
	content, err := os.ReadFile(cardPath)
	if err != nil {
		return models.Card{}, err
	}

	var fm cardFrontmatter
	body, err := splitFrontmatter(content, &fm)
	if err != nil {
		return models.Card{}, fmt.Errorf("%s: %w", cardPath, err)
	}

	card := models.Card{
		ID:        fm.ID,
		ListID:    fm.List,
		Position:  fm.Position,
		Completed: fm.Completed,
		Cover:     fm.Cover,
		CoverSize: fm.CoverSize,
		Labels:    []models.LabelRef{},
		MemberIDs: []string{},
	}
	for _, l := range fm.Labels {
		card.Labels = append(card.Labels, models.LabelRef{ID: l.ID, Name: l.Name, Color: l.Color})
	}
	card.MemberIDs = append(card.MemberIDs, fm.Members...)
	for _, cl := range fm.Checklists {
		out := models.Checklist{ID: cl.ID, Title: cl.Title}
		for _, item := range cl.Items {
			out.Items = append(out.Items, models.ChecklistItem{ID: item.ID, Name: item.Name, Completed: item.Completed, Position: item.Position})
		}
		card.Checklists = append(card.Checklists, out)
	}

	card.Title, card.Description = splitTitle(string(body))
	return card, nil
}

// splitFrontmatter decodes a leading --- delimited YAML block into out and
// returns the rest. Content without frontmatter is returned whole.
func splitFrontmatter(content []byte, out any) ([]byte, error) {
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	var frontmatterEnd int
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatterEnd = i
			break
		}
	}
	if frontmatterEnd == 0 {
		return content, nil
	}

	frontmatterBytes := bytes.Join(lines[1:frontmatterEnd], []byte("\n"))
	if err := yaml.Unmarshal(frontmatterBytes, out); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return bytes.TrimLeft(bytes.Join(lines[frontmatterEnd+1:], []byte("\n")), "\n"), nil
}

// splitTitle takes the first level one heading as the title and everything
// after it as the description.
func splitTitle(markdown string) (string, string) {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	title := ""
	rest := markdown
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		heading, ok := n.(*ast.Heading)
		if !entering || !ok || heading.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = string(heading.Text(source))
		if lines := heading.Lines(); lines.Len() > 0 {
			end := lines.At(lines.Len() - 1).Stop
			if nl := strings.IndexByte(markdown[end:], '\n'); nl >= 0 {
				rest = markdown[end+nl+1:]
			} else {
				rest = ""
			}
		}
		return ast.WalkStop, nil
	})

	if title == "" {
		title = "Untitled"
	}
	return title, strings.TrimSpace(rest)
}

// Preview returns the first two paragraphs of a description as one line,
// cut to 60 characters.
func Preview(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var preview strings.Builder
	lineCount := 0
	maxLines := 2

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if n.Kind() == ast.KindHeading {
			return ast.WalkSkipChildren, nil
		}

		if n.Kind() == ast.KindParagraph {
			if lineCount >= maxLines {
				return ast.WalkStop, nil
			}

			text := string(n.Text(source))
			if text != "" {
				if preview.Len() > 0 {
					preview.WriteString(" ")
				}
				preview.WriteString(text)
				lineCount++
			}

			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	previewText := []rune(preview.String())
	if len(previewText) > 60 {
		return string(previewText[:57]) + "..."
	}
	return string(previewText)
}
