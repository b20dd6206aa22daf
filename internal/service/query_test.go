package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptrag/internal/assembler"
	"adaptrag/internal/domain"
	"adaptrag/internal/generation"
	"adaptrag/internal/tokens"
)

type stubSearcher struct {
	results []domain.RetrievedUnit
	err     error
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, q string, _ int) ([]domain.RetrievedUnit, error) {
	s.queries = append(s.queries, q)
	return s.results, s.err
}

type stubGenerator struct {
	system, user string
	opts         generation.Options
	out          string
	err          error
	calls        int
}

func (g *stubGenerator) Complete(_ context.Context, system, user string, opts generation.Options) (string, error) {
	g.calls++
	g.system, g.user, g.opts = system, user, opts
	return g.out, g.err
}

var sampleResults = []domain.RetrievedUnit{
	{Text: "Use sans-serif fonts.", Source: "fonts.pdf", Author: "Jane Doe", PageNumber: 2, Section: "Results", Score: 0.91},
	{Text: "Short sentences help.", Source: "syntax.pdf", Author: "John Roe", PageNumber: 5, Section: "Discussion", Score: 0.42},
}

func newOrchestrator(t *testing.T, s Searcher, g generation.Generator, lang string) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(s, assembler.New(tokens.Words{}), g, QueryOptions{
		TopK: 5, MaxContextTokens: 4000, Temperature: 0.7, MaxTokens: 1000, Language: lang,
	})
	require.NoError(t, err)
	return o
}

func TestOrchestratorAnswer(t *testing.T) {
	ctx := testContext()

	t.Run("Should short-circuit when nothing is found", func(t *testing.T) {
		g := &stubGenerator{}
		a := newOrchestrator(t, &stubSearcher{}, g, "en").Answer(ctx, "q?", true)
		assert.Equal(t, NoContextAnswer, a.Text)
		assert.Empty(t, a.Sources)
		assert.NotNil(t, a.Sources)
		assert.Empty(t, a.ContextUsed)
		assert.Zero(t, g.calls)
		assert.False(t, a.Failed())
	})

	t.Run("Should treat a search failure as no results", func(t *testing.T) {
		a := newOrchestrator(t, &stubSearcher{err: errors.New("index down")}, &stubGenerator{}, "en").Answer(ctx, "q?", true)
		assert.Equal(t, NoContextAnswer, a.Text)
	})

	t.Run("Should ground the prompt in the assembled context", func(t *testing.T) {
		g := &stubGenerator{out: "adapted lesson"}
		a := newOrchestrator(t, &stubSearcher{results: sampleResults}, g, "en").Answer(ctx, "How to format?", true)
		require.False(t, a.Failed())
		assert.Equal(t, "adapted lesson", a.Text)
		assert.Equal(t, "How to format?", a.Question)
		assert.Equal(t, assembler.RenderUnit(sampleResults[0])+assembler.Separator+assembler.RenderUnit(sampleResults[1]), a.ContextUsed)
		assert.Contains(t, g.user, "RESEARCH CONTEXT:\n"+a.ContextUsed)
		assert.Contains(t, g.user, "QUESTION: How to format?")
		assert.Contains(t, g.system, "dyslexic")
		assert.Equal(t, generation.Options{Temperature: 0.7, MaxTokens: 1000}, g.opts)
		require.Len(t, a.Sources, 2)
		assert.Equal(t, domain.Source{Source: "fonts.pdf", Author: "Jane Doe", Section: "Results", Page: 2, RelevanceScore: 0.91}, a.Sources[0])
	})

	t.Run("Should use the context-free prompt without context", func(t *testing.T) {
		g := &stubGenerator{out: "ok"}
		a := newOrchestrator(t, &stubSearcher{}, g, "en").Answer(ctx, "q?", false)
		assert.Equal(t, "ok", a.Text)
		assert.Empty(t, a.ContextUsed)
		assert.NotContains(t, g.user, "RESEARCH CONTEXT")
		assert.Equal(t, 1, g.calls)
	})

	t.Run("Should absorb generation failures into the answer", func(t *testing.T) {
		g := &stubGenerator{err: errors.New("quota exceeded")}
		a := newOrchestrator(t, &stubSearcher{results: sampleResults}, g, "en").Answer(ctx, "q?", true)
		assert.True(t, a.Failed())
		assert.Equal(t, "Error generating response: quota exceeded", a.Text)
		assert.Empty(t, a.Sources)
		assert.NotEmpty(t, a.ContextUsed)
	})

	t.Run("Should answer in French by default", func(t *testing.T) {
		g := &stubGenerator{out: "ok"}
		newOrchestrator(t, &stubSearcher{results: sampleResults}, g, "").Answer(ctx, "q?", true)
		assert.Contains(t, g.user, "CONTEXTE DE RECHERCHE")
		assert.Contains(t, g.system, "français")
		assert.Contains(t, g.system, "STYLE D'ADAPTATION :")
		assert.True(t, strings.HasSuffix(g.system, "CRÉEZ le contenu adapté, ne donnez pas de conseils."))
	})
}

func TestNewOrchestrator(t *testing.T) {
	t.Run("Should reject unknown languages", func(t *testing.T) {
		_, err := NewOrchestrator(&stubSearcher{}, assembler.New(tokens.Words{}), &stubGenerator{}, QueryOptions{Language: "de"})
		assert.Error(t, err)
	})
	t.Run("Should require collaborators", func(t *testing.T) {
		_, err := NewOrchestrator(nil, nil, nil, QueryOptions{})
		assert.Error(t, err)
	})
}

func TestQuestionBuilders(t *testing.T) {
	s := &stubSearcher{}
	o := newOrchestrator(t, s, &stubGenerator{}, "en")

	assert.Equal(t,
		"How can I adapt reading activities in history for dyslexic students? What specific accommodations and modifications should I consider?",
		o.AdaptationsQuestion("history", "reading"))
	assert.Equal(t,
		"What are effective dyslexia-friendly exercises and activities to teach fractions for students of grade 5? Please provide specific examples with clear instructions.",
		o.ExerciseIdeasQuestion("fractions", "grade 5"))
	assert.Equal(t,
		"What are effective dyslexia-friendly exercises and activities to teach fractions? Please provide specific examples with clear instructions.",
		o.ExerciseIdeasQuestion("fractions", ""))
	assert.Contains(t, o.AssessmentQuestion("written test"), "modify written test assessments")

	o.SuggestAdaptations(testContext(), "history", "reading")
	o.GetExerciseIdeas(testContext(), "fractions", "")
	o.GetAssessmentAdaptations(testContext(), "oral")
	require.Len(t, s.queries, 3)
	assert.Equal(t, o.AdaptationsQuestion("history", "reading"), s.queries[0])
}

func TestFormatAnswer(t *testing.T) {
	o := newOrchestrator(t, &stubSearcher{}, &stubGenerator{}, "en")
	out := o.FormatAnswer(domain.Answer{
		Question: "q?",
		Text:     "the answer",
		Sources:  []domain.Source{{Source: "a.pdf", Author: "Jane", Section: "Intro", Page: 3, RelevanceScore: 0.12345}},
	})
	assert.True(t, strings.HasPrefix(out, strings.Repeat("=", 60)+"\nDYSLEXIA TEACHING ASSISTANT\n"))
	assert.Contains(t, out, "QUESTION: q?")
	assert.Contains(t, out, "ANSWER:\nthe answer")
	assert.Contains(t, out, "1. a.pdf by Jane\n   Section: Intro, Page: 3\n   Relevance score: 0.123\n")
}
