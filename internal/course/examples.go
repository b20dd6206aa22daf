package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Example is a real before/after adaptation used to steer generation.
type Example struct {
	Original string `json:"original"`
	Adapted  string `json:"adapted"`
	Subject  string `json:"subject,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Examples is the examples file layout.
type Examples struct {
	Sections []Example      `json:"sections"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// LoadExamples reads an examples file. A missing file yields no examples.
func LoadExamples(path string) (*Examples, error) {
	var ex Examples
	if path == "" {
		return &ex, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ex, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("decode examples %s: %w", path, err)
	}
	return &ex, nil
}

func (e *Examples) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Sections)
}

// Best picks the example sharing the most words with content, preferring the
// given subject when any example has it. Ties go to the earliest example.
func (e *Examples) Best(content, subject string) (Example, bool) {
	if e.Len() == 0 {
		return Example{}, false
	}
	candidates := e.Sections
	if subject != "" {
		var bySubject []Example
		for _, ex := range e.Sections {
			if strings.Contains(strings.ToLower(ex.Subject), strings.ToLower(subject)) {
				bySubject = append(bySubject, ex)
			}
		}
		if len(bySubject) > 0 {
			candidates = bySubject
		}
	}
	words := wordSet(content)
	best, bestScore := candidates[0], 0
	for _, ex := range candidates {
		score := 0
		for w := range wordSet(ex.Original) {
			if _, ok := words[w]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = ex, score
		}
	}
	return best, true
}

// Seed formats the best example as a prompt preamble, or returns "".
func (e *Examples) Seed(content, subject string) string {
	ex, ok := e.Best(content, subject)
	if !ok {
		return ""
	}
	return fmt.Sprintf(`
EXEMPLE D'ADAPTATION RÉELLE :

TEXTE ORIGINAL :
%s

TEXTE ADAPTÉ POUR DYSLEXIQUES :
%s

MAINTENANT, ADAPTE TON TEXTE DE LA MÊME FAÇON :
`, ex.Original, ex.Adapted)
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = struct{}{}
	}
	return out
}
