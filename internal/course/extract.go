// Package course builds dyslexia friendly adaptations of existing course
// documents on top of the question answering service.
package course

import (
	"strings"
	"unicode/utf8"

	"adaptrag/internal/chunker"
	"adaptrag/internal/domain"
)

var (
	exerciseKeywords    = []string{"exercice", "activité", "travail", "devoir", "question", "répondez", "complétez", "analysez"}
	instructionKeywords = []string{"consigne", "instruction", "lisez", "écrivez", "expliquez", "décrivez", "comparez"}
)

// Section is a titled block of course text. Page is where it starts.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Page    int    `json:"page"`
}

// Course is the structured content of one course document.
type Course struct {
	Title        string    `json:"title"`
	TotalPages   int       `json:"total_pages"`
	Sections     []Section `json:"sections"`
	Exercises    []string  `json:"exercises"`
	Instructions []string  `json:"instructions"`
}

// ExtractCourse splits a course into sections across page boundaries and
// collects the lines that look like exercises or instructions. Text before
// the first heading belongs to no section.
func ExtractCourse(doc domain.Document) Course {
	c := Course{Title: doc.Meta.Title, TotalPages: len(doc.Pages)}
	var (
		title     string
		startPage int
		body      strings.Builder
	)
	flush := func() {
		if content := strings.TrimSpace(body.String()); title != "" && content != "" {
			c.Sections = append(c.Sections, Section{Title: title, Content: content, Page: startPage})
		}
	}
	for _, page := range doc.Pages {
		for _, raw := range strings.Split(page.Text, "\n") {
			line := strings.TrimSpace(raw)
			c.collect(line)
			if chunker.IsSectionHeader(line) {
				flush()
				title, startPage = line, page.Number
				body.Reset()
				continue
			}
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	flush()
	return c
}

func (c *Course) collect(line string) {
	n := utf8.RuneCountInString(line)
	if n <= 10 || n >= 200 {
		return
	}
	lower := strings.ToLower(line)
	if containsAny(lower, exerciseKeywords) {
		c.Exercises = append(c.Exercises, line)
	}
	if containsAny(lower, instructionKeywords) {
		c.Instructions = append(c.Instructions, line)
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var titleReplacer = strings.NewReplacer(
	"Analyse", "Étude",
	"Caractéristiques", "Points importants",
	"Méthodologie", "Méthode",
	"Problématique", "Problème",
	"Synthèse", "Résumé",
)

// SimplifyTitle swaps a few abstract words for plainer ones and caps the
// title at 60 characters.
func SimplifyTitle(title string) string {
	title = titleReplacer.Replace(strings.TrimSpace(title))
	if r := []rune(title); len(r) > 60 {
		title = string(r[:57]) + "..."
	}
	return title
}

func truncateRunes(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
