// Package tui is the interactive question mode of the teaching assistant.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"adaptrag/internal/domain"
	"adaptrag/internal/vectorstore"
)

// Port is the TUI-facing subset of the assistant.
type Port interface {
	Answer(ctx context.Context, question string, includeContext bool) domain.Answer
	Stats(ctx context.Context) (vectorstore.Stats, error)
}

// ExampleQuestions are shown by the help command.
var ExampleQuestions = []string{
	"Comment puis-je adapter les exercices de lecture pour les élèves dyslexiques ?",
	"Quelles sont les techniques d'enseignement multisensorielles efficaces pour la dyslexie ?",
	"Comment dois-je modifier les consignes écrites pour les apprenants dyslexiques ?",
	"Quels aménagements fonctionnent le mieux pour les évaluations de maths avec les élèves dyslexiques ?",
	"Comment puis-je rendre les devoirs d'écriture plus accessibles aux élèves dyslexiques ?",
	"Quelles sont les meilleures polices et mise en forme pour les lecteurs dyslexiques ?",
	"Comment adapter l'enseignement de la phonétique pour les enfants dyslexiques ?",
	"Quelles technologies d'assistance aident les élèves dyslexiques en classe ?",
}

var quitWords = map[string]struct{}{"quitter": {}, "quit": {}, "exit": {}, "q": {}, "sortir": {}}

type answerMsg struct{ answer domain.Answer }

type statsMsg struct {
	stats vectorstore.Stats
	err   error
}

// Model is the Bubble Tea model for the interactive mode.
type Model struct {
	ctx      context.Context
	service  Port
	input    textinput.Model
	viewport viewport.Model
	content  string
	status   string
	busy     bool
	ready    bool
}

// New creates a new TUI model instance. ctx is passed to every service call.
func New(ctx context.Context, service Port) Model {
	ti := textinput.New()
	ti.Prompt = "📝 "
	ti.Placeholder = "Votre question (aide, stats, quitter)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: vp,
		content:  "Posez des questions sur l'adaptation des cours pour les élèves dyslexiques.",
		status:   "Prêt.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and service events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.content)
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.answer.Failed() {
			m.status = "Erreur : " + msg.answer.Err.Error()
		} else {
			m.status = fmt.Sprintf("%d sources", len(msg.answer.Sources))
		}
		m.setContent(renderAnswer(msg.answer))
		return m, nil
	case statsMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Erreur lors de la récupération des stats : " + msg.err.Error()
			return m, nil
		}
		m.setContent(fmt.Sprintf("📊 Statistiques de la Base de Données :\n   Total de vecteurs : %d\n   Dimensions : %d",
			msg.stats.VectorCount, msg.stats.Dimension))
		m.status = "Prêt."
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" || m.busy {
		return m, nil
	}
	m.input.SetValue("")
	lower := strings.ToLower(q)
	if _, ok := quitWords[lower]; ok {
		return m, tea.Quit
	}
	switch lower {
	case "aide", "help":
		m.setContent(renderExamples())
		return m, nil
	case "stats":
		m.busy = true
		m.status = "Lecture des statistiques..."
		ctx, svc := m.ctx, m.service
		return m, func() tea.Msg {
			s, err := svc.Stats(ctx)
			return statsMsg{stats: s, err: err}
		}
	}
	m.busy = true
	m.status = "🔍 Recherche dans la base de données de recherche..."
	ctx, svc := m.ctx, m.service
	return m, func() tea.Msg { return answerMsg{answer: svc.Answer(ctx, q, true)} }
}

func (m *Model) setContent(s string) {
	m.content = s
	m.viewport.SetContent(s)
	m.viewport.GotoTop()
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Chargement..."
	}
	header := headerStyle.Render("🎓 Assistant Pédagogique Dyslexie")
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + results + "\n" + input + "\n" + status
}

func renderAnswer(a domain.Answer) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("QUESTION : ") + a.Question + "\n\n")
	b.WriteString(a.Text + "\n")
	if len(a.Sources) > 0 {
		b.WriteString("\n" + labelStyle.Render("SOURCES :") + "\n")
		for i, s := range a.Sources {
			fmt.Fprintf(&b, "%d. %s par %s\n   Section : %s, Page : %d  %s\n",
				i+1, s.Source, s.Author, s.Section, s.Page, scoreStyle.Render(fmt.Sprintf("%.3f", s.RelevanceScore)))
		}
	}
	return b.String()
}

func renderExamples() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("💡 Exemples de Questions :") + "\n")
	for i, q := range ExampleQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	labelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	scoreStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
