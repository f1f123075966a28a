package document

import (
	"strings"
	"unicode"
)

// ExtractionFailed stands in for the document text when the source yielded no characters.
const ExtractionFailed = "[document text could not be extracted]"

// Section is a block of the document introduced by an all-uppercase header line.
type Section struct {
	Name string
	Body string
}

// IsHeader reports whether line reads as a section header: after trimming it
// has at least one cased letter and no lowercase or titlecase letters.
// Digits, spaces and punctuation are ignored, so "WORK EXPERIENCE (2019-2024)"
// qualifies while "----" does not.
func IsHeader(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	cased := false
	for _, r := range line {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// Sections partitions text into sections in the order their headers first appear.
// A repeated header clears the body collected so far but keeps the section's position.
// Lines before the first header are dropped.
func Sections(text string) []Section {
	var (
		order   []string
		bodies  = make(map[string][]string)
		current string
		active  bool
	)

	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)

		if IsHeader(trimmed) {
			if _, seen := bodies[trimmed]; !seen {
				order = append(order, trimmed)
			}
			bodies[trimmed] = []string{}
			current, active = trimmed, true
			continue
		}

		if !active || trimmed == "" {
			continue
		}
		bodies[current] = append(bodies[current], trimmed)
	}

	sections := make([]Section, 0, len(order))
	for _, name := range order {
		sections = append(sections, Section{Name: name, Body: strings.Join(bodies[name], " ")})
	}
	return sections
}

// Extract renders text as "NAME:\nbody" blocks joined by newlines. Text with no
// header lines is returned trimmed and otherwise untouched; text with no
// characters at all becomes ExtractionFailed.
func Extract(text string) string {
	sections := Sections(text)
	if len(sections) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return ExtractionFailed
		}
		return trimmed
	}

	blocks := make([]string, 0, len(sections))
	for _, s := range sections {
		blocks = append(blocks, s.Name+":\n"+s.Body)
	}
	return strings.Join(blocks, "\n")
}

// JoinPages concatenates page texts, one page per line group.
func JoinPages(pages []string) string {
	return strings.Join(pages, "\n")
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
