package shared

import "strings"

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func blank(lines []string, n int) []string {
	for i := 0; i < n; i++ {
		lines = append(lines, "")
	}
	return lines
}

// CenterContent pads content so it sits vertically centered in height
// lines. Content taller than height is returned as is.
func CenterContent(content string, height int) string {
	body := splitLines(content)
	if len(body) >= height {
		return strings.TrimRight(content, "\n")
	}
	top := (height - len(body)) / 2
	lines := blank(make([]string, 0, height), top)
	lines = append(lines, body...)
	lines = blank(lines, height-len(lines))
	return strings.Join(lines, "\n")
}

// CenterWithBottomHints centers content in height lines with hints pinned
// to the last line.
func CenterWithBottomHints(content, hints string, height int) string {
	body := splitLines(content)
	foot := splitLines(hints)

	gap := height - len(body) - len(foot)
	if gap <= 0 {
		return strings.Join(append(body, foot...), "\n")
	}
	top := gap / 2
	lines := blank(make([]string, 0, height), top)
	lines = append(lines, body...)
	lines = blank(lines, gap-top)
	lines = append(lines, foot...)
	return strings.Join(lines, "\n")
}
