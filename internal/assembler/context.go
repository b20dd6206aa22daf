// Package assembler renders ranked retrieval results into a token bounded
// context block for generation.
package assembler

import (
	"fmt"
	"strings"

	"adaptrag/internal/domain"
	"adaptrag/internal/tokens"
)

// Separator is placed between two rendered units.
const Separator = "\n---\n"

// Context is the assembled evidence handed to the generator.
type Context struct {
	Text string
	// Units are the leading results that fit the budget, in input order.
	Units  []domain.RetrievedUnit
	Tokens int
}

// Assembler greedily keeps the longest prefix of the ranking that fits.
type Assembler struct {
	counter tokens.Counter
}

func New(counter tokens.Counter) *Assembler {
	return &Assembler{counter: counter}
}

// RenderUnit formats one unit with its citation header.
func RenderUnit(u domain.RetrievedUnit) string {
	return fmt.Sprintf("[Source: %s by %s, %s, p.%d]\n%s\n", u.Source, u.Author, u.Section, u.PageNumber, u.Text)
}

// Build walks results in order and stops at the first unit that would push
// the joined context over maxTokens. Units are never reordered or cut, so a
// first unit larger than the budget yields an empty context. The budget is
// checked against the joined text, separators included, so Tokens is exact.
func (a *Assembler) Build(results []domain.RetrievedUnit, maxTokens int) Context {
	var out Context
	if maxTokens <= 0 {
		return out
	}
	var b strings.Builder
	for _, u := range results {
		candidate := b.String()
		if b.Len() > 0 {
			candidate += Separator
		}
		candidate += RenderUnit(u)
		n := a.counter.Count(candidate)
		if n > maxTokens {
			break
		}
		b.Reset()
		b.WriteString(candidate)
		out.Units = append(out.Units, u)
		out.Tokens = n
	}
	out.Text = b.String()
	return out
}

// BuildContext is Build for callers that only need the text.
func (a *Assembler) BuildContext(results []domain.RetrievedUnit, maxTokens int) string {
	return a.Build(results, maxTokens).Text
}
