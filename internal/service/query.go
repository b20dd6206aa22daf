package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"adaptrag/internal/assembler"
	"adaptrag/internal/domain"
	"adaptrag/internal/embedding"
	"adaptrag/internal/generation"
	"adaptrag/internal/logger"
	"adaptrag/internal/vectorstore"
)

// Searcher returns up to topK units ranked by descending relevance.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.RetrievedUnit, error)
}

// Retriever embeds a query and searches the vector store with it.
type Retriever struct {
	batcher *embedding.Batcher
	store   vectorstore.Storage
}

func NewRetriever(batcher *embedding.Batcher, store vectorstore.Storage) *Retriever {
	return &Retriever{batcher: batcher, store: store}
}

func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]domain.RetrievedUnit, error) {
	vec, err := r.batcher.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	units, err := r.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return units, nil
}

// QueryOptions tunes the question answering cycle.
type QueryOptions struct {
	TopK             int
	MaxContextTokens int
	Temperature      float64
	MaxTokens        int
	Language         string
}

// Orchestrator runs retrieval, context assembly and generation for a question.
type Orchestrator struct {
	search    Searcher
	assembler *assembler.Assembler
	gen       generation.Generator
	opts      QueryOptions
	prompts   prompts
	tracer    trace.Tracer
}

func NewOrchestrator(search Searcher, asm *assembler.Assembler, gen generation.Generator, opts QueryOptions) (*Orchestrator, error) {
	if search == nil || asm == nil || gen == nil {
		return nil, errors.New("orchestrator: searcher, assembler and generator are required")
	}
	p, err := promptsFor(opts.Language)
	if err != nil {
		return nil, err
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Orchestrator{
		search:    search,
		assembler: asm,
		gen:       gen,
		opts:      opts,
		prompts:   p,
		tracer:    otel.Tracer("adaptrag.service.query"),
	}, nil
}

// Answer always returns an answer-shaped result. A search failure counts as
// zero results; a generation failure is recorded in Err and in the text.
func (o *Orchestrator) Answer(ctx context.Context, question string, includeContext bool) domain.Answer {
	ctx, span := o.tracer.Start(ctx, "adaptrag.query.answer", trace.WithAttributes(
		attribute.Int("top_k", o.opts.TopK),
		attribute.Bool("include_context", includeContext),
	))
	defer span.End()
	log := logger.FromContext(ctx).With("component", "query")

	results, err := o.search.Search(ctx, question, o.opts.TopK)
	if err != nil {
		log.Warn("search failed, continuing without results", "error", err)
		span.RecordError(err)
		results = nil
	}
	span.SetAttributes(attribute.Int("results", len(results)))

	answer := domain.Answer{Question: question, Sources: []domain.Source{}}
	if len(results) == 0 && includeContext {
		answer.Text = NoContextAnswer
		return answer
	}

	if includeContext {
		built := o.assembler.Build(results, o.opts.MaxContextTokens)
		answer.ContextUsed = built.Text
		span.SetAttributes(attribute.Int("context_units", len(built.Units)), attribute.Int("context_tokens", built.Tokens))
		log.Debug("context assembled", "units", len(built.Units), "of", len(results), "tokens", built.Tokens)
	}

	var user string
	if answer.ContextUsed != "" {
		user = fmt.Sprintf(o.prompts.withContext, question, answer.ContextUsed)
	} else {
		user = fmt.Sprintf(o.prompts.withoutContext, question)
	}

	text, err := o.gen.Complete(ctx, o.prompts.system, user, generation.Options{
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
	})
	if err != nil {
		log.Error("generation failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		answer.Err = err
		answer.Text = fmt.Sprintf("Error generating response: %v", err)
		return answer
	}
	answer.Text = text
	for _, r := range results {
		answer.Sources = append(answer.Sources, domain.Source{
			Source:         r.Source,
			Author:         r.Author,
			Section:        r.Section,
			Page:           r.PageNumber,
			RelevanceScore: r.Score,
		})
	}
	return answer
}

// AdaptationsQuestion asks how to adapt an activity type in a subject.
func (o *Orchestrator) AdaptationsQuestion(subject, activityType string) string {
	return fmt.Sprintf(o.prompts.adaptations, activityType, subject)
}

// ExerciseIdeasQuestion asks for exercises on a topic, optionally for a grade.
func (o *Orchestrator) ExerciseIdeasQuestion(topic, gradeLevel string) string {
	var grade string
	if strings.TrimSpace(gradeLevel) != "" {
		grade = fmt.Sprintf(o.prompts.gradePart, gradeLevel)
	}
	return fmt.Sprintf(o.prompts.exercises, topic, grade)
}

// AssessmentQuestion asks how to adapt an assessment type.
func (o *Orchestrator) AssessmentQuestion(assessmentType string) string {
	return fmt.Sprintf(o.prompts.assessment, assessmentType)
}

func (o *Orchestrator) SuggestAdaptations(ctx context.Context, subject, activityType string) domain.Answer {
	return o.Answer(ctx, o.AdaptationsQuestion(subject, activityType), true)
}

func (o *Orchestrator) GetExerciseIdeas(ctx context.Context, topic, gradeLevel string) domain.Answer {
	return o.Answer(ctx, o.ExerciseIdeasQuestion(topic, gradeLevel), true)
}

func (o *Orchestrator) GetAssessmentAdaptations(ctx context.Context, assessmentType string) domain.Answer {
	return o.Answer(ctx, o.AssessmentQuestion(assessmentType), true)
}

// FormatAnswer renders an answer for terminal display.
func (o *Orchestrator) FormatAnswer(a domain.Answer) string {
	p := o.prompts
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	b.WriteString(rule + "\n" + p.title + "\n" + rule + "\n")
	b.WriteString("\n" + p.questionLabel + a.Question + "\n")
	b.WriteString("\n" + p.answerLabel + "\n" + a.Text + "\n")
	if len(a.Sources) > 0 {
		b.WriteString("\n" + strings.Repeat("=", 40) + "\n" + p.sourcesLabel + "\n")
		for i, s := range a.Sources {
			fmt.Fprintf(&b, "%d. "+p.sourceLine+"\n", i+1, s.Source, s.Author)
			fmt.Fprintf(&b, p.sectionLine+"\n", s.Section, s.Page)
			fmt.Fprintf(&b, p.scoreLine+"\n", s.RelevanceScore)
		}
	}
	return b.String()
}
