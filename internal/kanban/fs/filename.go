package fs

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var multiUnderscore = regexp.MustCompile(`_+`)

// ToSnakeCase converts a title to lowercase snake_case
// "My Card Title!" -> "my_card_title"
func ToSnakeCase(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")

	// Remove non-alphanumeric chars (except underscore)
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			result.WriteRune(r)
		}
	}
	s = multiUnderscore.ReplaceAllString(result.String(), "_")
	s = strings.Trim(s, "_")

	if s == "" {
		s = "card"
	}
	return s
}

// UniqueFilename picks a file name for base that is not yet taken in dir nor
// in taken. It tries base.md, then base_2.md, base_3.md, etc.
func UniqueFilename(base, dir string, taken map[string]bool) string {
	candidate := base + ".md"
	for i := 2; taken[candidate] || fileExists(filepath.Join(dir, candidate)); i++ {
		candidate = base + "_" + strconv.Itoa(i) + ".md"
	}
	return candidate
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
