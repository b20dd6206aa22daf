package course

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"adaptrag/internal/domain"
	"adaptrag/internal/logger"
	"adaptrag/internal/summarizer"
)

const (
	DefaultMaxSections = 3
	DefaultMaxItems    = 3
	DefaultSubject     = "Histoire"

	promptContentRunes  = 800
	previewContentRunes = 200
	condensedSentences  = 6
)

var tracer = otel.Tracer("adaptrag.course")

// Answerer is the question answering port used for every generated block.
type Answerer interface {
	Answer(ctx context.Context, question string, includeContext bool) domain.Answer
}

// Options bounds how much of a course is sent for adaptation.
type Options struct {
	MaxSections     int
	MaxExercises    int
	MaxInstructions int
	Subject         string
	// SummarySentences is how many sentences a long section is condensed to.
	SummarySentences int
}

// Adapter turns an extracted course into its adapted counterpart.
type Adapter struct {
	answerer   Answerer
	examples   *Examples
	summarizer summarizer.Summarizer
	opts       Options
	now        func() time.Time
}

// NewAdapter wires an adapter. examples and sum may be nil.
func NewAdapter(answerer Answerer, examples *Examples, sum summarizer.Summarizer, opts Options) (*Adapter, error) {
	if answerer == nil {
		return nil, fmt.Errorf("course adapter: answerer is required")
	}
	if opts.MaxSections <= 0 {
		opts.MaxSections = DefaultMaxSections
	}
	if opts.MaxExercises <= 0 {
		opts.MaxExercises = DefaultMaxItems
	}
	if opts.MaxInstructions <= 0 {
		opts.MaxInstructions = DefaultMaxItems
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = condensedSentences
	}
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	return &Adapter{answerer: answerer, examples: examples, summarizer: sum, opts: opts, now: time.Now}, nil
}

type AdaptedSection struct {
	OriginalTitle          string          `json:"original_title"`
	AdaptedTitle           string          `json:"adapted_title"`
	OriginalContentPreview string          `json:"original_content_preview"`
	AdaptedContent         string          `json:"adapted_content"`
	Sources                []domain.Source `json:"sources"`
	Page                   int             `json:"page"`
}

type AdaptedExercise struct {
	Original string          `json:"original_exercise"`
	Adapted  string          `json:"adapted_exercise"`
	Sources  []domain.Source `json:"sources"`
}

type AdaptedInstruction struct {
	Original string          `json:"original_instruction"`
	Adapted  string          `json:"adapted_instruction"`
	Sources  []domain.Source `json:"sources"`
}

type Introduction struct {
	Text    string          `json:"adapted_introduction"`
	Sources []domain.Source `json:"sources"`
}

type FormattingGuide struct {
	Guide   string          `json:"guide"`
	Sources []domain.Source `json:"sources"`
}

type Assessment struct {
	Example string          `json:"example_assessment"`
	Sources []domain.Source `json:"sources"`
}

// Adaptation is the full adapted course.
type Adaptation struct {
	CourseTitle      string               `json:"course_title"`
	OriginalSections int                  `json:"original_sections"`
	Sections         []AdaptedSection     `json:"adapted_sections"`
	Introduction     Introduction         `json:"general_adaptations"`
	Exercises        []AdaptedExercise    `json:"exercise_adaptations"`
	Instructions     []AdaptedInstruction `json:"instruction_adaptations"`
	Formatting       FormattingGuide      `json:"formatting_recommendations"`
	Assessment       Assessment           `json:"assessment_adaptations"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// Adapt generates every adapted block of a course. Generation failures are
// kept in the text of the affected block, the way Answer reports them.
func (a *Adapter) Adapt(ctx context.Context, c Course) Adaptation {
	ctx, span := tracer.Start(ctx, "course.Adapt")
	defer span.End()
	log := logger.FromContext(ctx).With("course", c.Title)

	out := Adaptation{
		CourseTitle:      c.Title,
		OriginalSections: len(c.Sections),
		Sections:         []AdaptedSection{},
		Exercises:        []AdaptedExercise{},
		Instructions:     []AdaptedInstruction{},
		GeneratedAt:      a.now(),
	}

	intro := a.ask(ctx, a.seed("")+fmt.Sprintf(introPrompt, c.Title, c.Title))
	out.Introduction = Introduction{Text: intro.Text, Sources: intro.Sources}

	sections := c.Sections[:min(a.opts.MaxSections, len(c.Sections))]
	for i, s := range sections {
		log.Info("Adapting section", "index", i+1, "total", len(sections), "title", truncateRunes(s.Title, 50))
		ans := a.ask(ctx, a.seed(truncateRunes(s.Content, previewContentRunes))+
			fmt.Sprintf(sectionPrompt, s.Title, a.condense(s.Content)))
		out.Sections = append(out.Sections, AdaptedSection{
			OriginalTitle:          s.Title,
			AdaptedTitle:           SimplifyTitle(s.Title),
			OriginalContentPreview: truncateRunes(s.Content, previewContentRunes) + "...",
			AdaptedContent:         ans.Text,
			Sources:                ans.Sources,
			Page:                   s.Page,
		})
	}

	for _, ex := range c.Exercises[:min(a.opts.MaxExercises, len(c.Exercises))] {
		ans := a.ask(ctx, a.seed(ex)+fmt.Sprintf(exercisePrompt, ex))
		out.Exercises = append(out.Exercises, AdaptedExercise{Original: ex, Adapted: ans.Text, Sources: ans.Sources})
	}

	for _, in := range c.Instructions[:min(a.opts.MaxInstructions, len(c.Instructions))] {
		ans := a.ask(ctx, a.seed(in)+fmt.Sprintf(instructionPrompt, in))
		out.Instructions = append(out.Instructions, AdaptedInstruction{Original: in, Adapted: ans.Text, Sources: ans.Sources})
	}

	guide := a.ask(ctx, fmt.Sprintf(formattingPrompt, c.Title))
	out.Formatting = FormattingGuide{Guide: guide.Text, Sources: guide.Sources}

	assess := a.ask(ctx, fmt.Sprintf(assessmentPrompt, c.Title))
	out.Assessment = Assessment{Example: assess.Text, Sources: assess.Sources}

	log.Info("Course adapted", "sections", len(out.Sections), "exercises", len(out.Exercises), "instructions", len(out.Instructions))
	return out
}

func (a *Adapter) ask(ctx context.Context, question string) domain.Answer {
	ans := a.answerer.Answer(ctx, question, true)
	if ans.Failed() {
		logger.FromContext(ctx).Warn("Adaptation block failed", "error", ans.Err)
	}
	if ans.Sources == nil {
		ans.Sources = []domain.Source{}
	}
	return ans
}

func (a *Adapter) seed(content string) string {
	if s := a.examples.Seed(content, a.opts.Subject); s != "" {
		return s + "\n"
	}
	return ""
}

// condense keeps long section bodies within the prompt budget, preferring
// the most representative sentences when a summarizer is available.
func (a *Adapter) condense(content string) string {
	if len([]rune(content)) <= promptContentRunes {
		return content
	}
	if a.summarizer != nil {
		if sum, err := a.summarizer.Summarize(content, a.opts.SummarySentences); err == nil && sum != "" {
			content = sum
		}
	}
	return truncateRunes(content, promptContentRunes) + "..."
}

const (
	introPrompt = `Réécris une introduction adaptée aux élèves dyslexiques pour un cours sur '%s'. Crée directement le texte d'introduction du cours adapté, avec un langage simple, des phrases courtes et une structure claire.

COURS À ADAPTER : %s`

	sectionPrompt = `TITRE ORIGINAL: %s
CONTENU ORIGINAL: %s

INSTRUCTIONS: Réécris cette section avec :
- Phrases courtes et simples
- Vocabulaire accessible
- Structure claire avec des sous-titres
- Exemples concrets
- Points clés mis en évidence

CRÉE LE TEXTE ADAPTÉ DE LA SECTION:`

	exercisePrompt = `EXERCICE ORIGINAL: %s

INSTRUCTIONS: Crée un exercice adapté avec :
- Consignes claires et courtes
- Instructions étape par étape
- Vocabulaire simple
- Aide visuelle ou structurée si nécessaire

CRÉE L'EXERCICE ADAPTÉ:`

	instructionPrompt = `CONSIGNE ORIGINALE: %s

INSTRUCTIONS: Réécris la consigne avec :
- Mots simples et précis
- Une seule instruction par phrase
- Ordre logique des étapes
- Éviter les négations complexes

CRÉE LA CONSIGNE ADAPTÉE:`

	formattingPrompt = "Crée un guide de mise en forme spécifique pour ce cours '%s' adapté aux dyslexiques. Donne des instructions concrètes et pratiques pour la présentation du document."

	assessmentPrompt = "Crée un exemple concret d'évaluation adaptée pour ce cours '%s' destinée aux élèves dyslexiques. Produis un modèle d'exercice d'évaluation avec les adaptations nécessaires."
)
