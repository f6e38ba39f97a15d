// Package importer turns Markdown into MeDF blocks, one block per heading
// section. Splitting is heuristic and lives outside the integrity core: the
// hash tree only ever sees the resulting blocks.
package importer

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/medf"
)

// IntroID is the id given to text appearing before the first heading.
const IntroID = "intro"

// Block roles written by Blocks.
const (
	RolePreamble = "preamble"
	RoleSection  = "section"
)

// Section is one heading and the text up to the next heading.
type Section struct {
	ID    string
	Title string
	// Level is the heading depth (1-6); 0 for the intro section.
	Level int
	Body  string
}

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)(?:\s+\{:id=([a-z0-9-]+)\})?\s*$`)
	fenceRe   = regexp.MustCompile("^\\s{0,3}(```|~~~)")
	summaryRe = regexp.MustCompile(`(?s)<!--\s*summary:\s*(.+?)\s*-->`)

	slugStrip  = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSpaces = regexp.MustCompile(`[\s_]+`)
)

// Split breaks markdown into sections at ATX headings. Headings inside
// fenced code blocks are ignored. A heading may carry an explicit id as
// "# Title {:id=custom-id}"; otherwise the id is the slugified title.
// Repeated ids get a numeric suffix so every section id is unique.
func Split(markdown string) []Section {
	markdown = strings.ReplaceAll(markdown, "\r\n", "\n")

	var (
		sections []Section
		current  = Section{ID: IntroID}
		body     []string
		inFence  bool
		used     = map[string]int{}
	)

	flush := func() {
		current.Body = strings.Trim(strings.Join(body, "\n"), "\n")
		if current.Level > 0 || strings.TrimSpace(current.Body) != "" {
			sections = append(sections, current)
			if current.Level == 0 {
				used[IntroID]++
			}
		}
		body = body[:0]
	}

	for _, line := range strings.Split(markdown, "\n") {
		if fenceRe.MatchString(line) {
			inFence = !inFence
		}
		m := headingRe.FindStringSubmatch(line)
		if inFence || m == nil {
			body = append(body, line)
			continue
		}

		flush()
		id := m[3]
		if id == "" {
			id = Slugify(m[2])
		}
		if id == "" {
			id = fmt.Sprintf("section-%d", len(sections)+1)
		}
		current = Section{ID: unique(id, used), Title: strings.TrimSpace(m[2]), Level: len(m[1])}
	}
	flush()
	return sections
}

// unique returns id, or id with the lowest free numeric suffix. Suffixed
// results are recorded too, so a later heading that slugifies to the same
// text is suffixed again.
func unique(id string, used map[string]int) string {
	candidate := id
	for n := used[id] + 1; used[candidate] > 0; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	used[candidate]++
	if candidate != id {
		used[id]++
	}
	return candidate
}

// Slugify lowercases text, drops punctuation and joins words with dashes.
// Letters outside ASCII are kept.
func Slugify(text string) string {
	s := cases.Lower(language.Und).String(norm.NFKC.String(text))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(s, "-")
}

// Blocks converts sections into document blocks with the given format. The
// block text is the section's heading followed by its body, so the blocks
// concatenated reproduce the document.
func Blocks(sections []Section, format string) []medf.Block {
	blocks := make([]medf.Block, 0, len(sections))
	for _, s := range sections {
		role := RoleSection
		text := s.Body
		if s.Level == 0 {
			role = RolePreamble
		} else {
			text = strings.Repeat("#", s.Level) + " " + s.Title
			if s.Body != "" {
				text += "\n\n" + s.Body
			}
		}
		blocks = append(blocks, medf.Block{ID: s.ID, Role: role, Format: format, Text: text})
	}
	return blocks
}

// Metadata extracts the first level-1 heading as the title and an optional
// "<!-- summary: ... -->" comment.
func Metadata(markdown string, sections []Section) (title, summary string) {
	for _, s := range sections {
		if s.Level == 1 {
			title = s.Title
			break
		}
	}
	if m := summaryRe.FindStringSubmatch(markdown); m != nil {
		summary = m[1]
	}
	return title, summary
}

// Index builds the derived table of contents stored under "index". It is
// never part of the document hash.
func Index(title, summary string, sections []Section) map[string]any {
	entries := make([]any, 0, len(sections))
	for _, s := range sections {
		if s.Level == 0 {
			continue
		}
		entries = append(entries, map[string]any{
			"id":    s.ID,
			"title": s.Title,
			"level": s.Level,
		})
	}
	index := map[string]any{
		"title":    title,
		"sections": entries,
	}
	if summary != "" {
		index["summary"] = summary
	}
	return index
}

// NormalizeLanguage validates a BCP 47 tag and returns its canonical form.
func NormalizeLanguage(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", errors.WithHint(
			errors.WrapInvalidDocument(err, fmt.Sprintf("invalid language tag %q", tag)),
			"use a BCP 47 tag such as \"en\" or \"ja\"")
	}
	return t.String(), nil
}
