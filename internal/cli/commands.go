package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"adaptrag/internal/course"
	"adaptrag/internal/domain"
	"adaptrag/internal/extract"
	"adaptrag/internal/logger"
	"adaptrag/internal/service"
	"adaptrag/internal/summarizer"
	"adaptrag/internal/tui"
)

func newSetupCommand(a *app) *cobra.Command {
	var (
		exclude []string
		reset   bool
	)
	cmd := &cobra.Command{
		Use:   "setup [paths...]",
		Short: "Extract, chunk and index research documents",
		Long: "Extract, chunk and index research documents, adding them to the existing index.\n" +
			"Supported extensions: " + strings.Join(extract.NewRegistry().Extensions(), ", ") +
			" (plus ingest.text_extensions).\n" +
			"The index is rebuilt from scratch with --reset, and always with the tfidf embedder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if len(inputs) == 0 {
				inputs = a.cfg.Ingest.Inputs
			}
			if cmd.Flags().Changed("reset") {
				a.cfg.VectorStore.Reset = reset
			}
			idx, err := buildIndex(a.cfg)
			if err != nil {
				return err
			}
			if err := idx.load(); err != nil {
				return err
			}
			svc, err := buildIngest(a.cfg, idx)
			if err != nil {
				return err
			}
			report, err := svc.IngestPaths(a.ctx, inputs, append(a.cfg.Ingest.Exclude, exclude...))
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "glob patterns of files to skip")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the index before indexing")
	return cmd
}

func printReport(w io.Writer, r service.IngestReport) {
	fmt.Fprintf(w, "Indexed %d documents: %d chunks, %d vectors in %s\n", r.Documents, r.Chunks, r.Vectors, r.Duration.Round(time.Millisecond))
	if r.Reset {
		fmt.Fprintln(w, "The index was rebuilt from scratch")
	}
	if r.Embedding.Placeholders > 0 || r.Embedding.TruncatedTexts > 0 {
		fmt.Fprintf(w, "Embedding: %d failed batches, %d placeholder vectors, %d truncated texts\n",
			r.Embedding.FailedBatches, r.Embedding.Placeholders, r.Embedding.TruncatedTexts)
	}
	if r.FailedBatches > 0 {
		fmt.Fprintf(w, "Skipped %d upsert batches\n", r.FailedBatches)
	}
	for _, f := range r.FailedDocuments {
		fmt.Fprintf(w, "Failed: %s: %v\n", f.Path, f.Err)
	}
}

// answerCommand builds a command that asks one question derived from its args.
func answerCommand(a *app, use, short string, args cobra.PositionalArgs, question func(*service.Orchestrator, []string) string) *cobra.Command {
	var (
		asJSON    bool
		noContext bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, _, err := a.orchestrator()
			if err != nil {
				return err
			}
			answer := orch.Answer(a.ctx, question(orch, args), !noContext)
			return writeAnswer(cmd.OutOrStdout(), orch, answer, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer as JSON")
	cmd.Flags().BoolVar(&noContext, "no-context", false, "answer without retrieved research")
	return cmd
}

func writeAnswer(w io.Writer, orch *service.Orchestrator, answer domain.Answer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(answer); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, orch.FormatAnswer(answer))
	}
	if answer.Failed() {
		return answer.Err
	}
	return nil
}

func (a *app) orchestrator() (*service.Orchestrator, *index, error) {
	idx, err := buildIndex(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := idx.load(); err != nil {
		return nil, nil, err
	}
	orch, err := buildOrchestrator(a.cfg, idx)
	if err != nil {
		return nil, nil, err
	}
	return orch, idx, nil
}

func newQueryCommand(a *app) *cobra.Command {
	return answerCommand(a, "query <question...>", "Answer a single question and exit", cobra.MinimumNArgs(1),
		func(_ *service.Orchestrator, args []string) string { return strings.Join(args, " ") })
}

func newAdaptCommand(a *app) *cobra.Command {
	return answerCommand(a, "adapt <subject> <activity>", "Suggest adaptations for an activity in a subject", cobra.ExactArgs(2),
		func(o *service.Orchestrator, args []string) string { return o.AdaptationsQuestion(args[0], args[1]) })
}

func newExercisesCommand(a *app) *cobra.Command {
	return answerCommand(a, "exercises <topic> [grade]", "Suggest dyslexia friendly exercises for a topic", cobra.RangeArgs(1, 2),
		func(o *service.Orchestrator, args []string) string {
			grade := ""
			if len(args) > 1 {
				grade = args[1]
			}
			return o.ExerciseIdeasQuestion(args[0], grade)
		})
}

func newAssessmentCommand(a *app) *cobra.Command {
	return answerCommand(a, "assessment <type>", "Suggest adapted assessment methods", cobra.MinimumNArgs(1),
		func(o *service.Orchestrator, args []string) string { return o.AssessmentQuestion(strings.Join(args, " ")) })
}

func newInteractiveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Ask questions in an interactive terminal session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch, idx, err := a.orchestrator()
			if err != nil {
				return err
			}
			ctx := quietContext(a.ctx)
			m := tui.New(ctx, assistant{Orchestrator: orch, store: idx.store})
			_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vector index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := buildIndex(a.cfg)
			if err != nil {
				return err
			}
			if err := idx.load(); err != nil {
				return err
			}
			stats, err := idx.store.Stats(a.ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total vectors: %d\nDimension: %d\n", stats.VectorCount, stats.Dimension)
			return nil
		},
	}
}

func newCourseCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "course [files...]",
		Short: "Generate dyslexia friendly versions of course documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Course.Format
			}
			f, err := course.ParseFormat(format)
			if err != nil {
				return err
			}
			inputs := args
			if len(inputs) == 0 {
				inputs = []string{a.cfg.Course.InputDir}
			}
			registry := newRegistry(a.cfg)
			files, err := registry.Discover(inputs, nil)
			if err != nil {
				return err
			}
			orch, _, err := a.orchestrator()
			if err != nil {
				return err
			}
			examples, err := course.LoadExamples(a.cfg.Course.ExamplesFile)
			if err != nil {
				return err
			}
			adapter, err := course.NewAdapter(orch, examples, summarizer.NewFrequencySummarizer(), course.Options{
				MaxSections:      a.cfg.Course.MaxSections,
				Subject:          a.cfg.Course.Subject,
				SummarySentences: a.cfg.Summarizer.MaxSentences,
			})
			if err != nil {
				return err
			}

			log := logger.FromContext(a.ctx)
			for _, file := range files {
				doc, err := registry.Extract(a.ctx, file)
				if err != nil {
					log.Error("Course extraction failed", "path", file, "error", err)
					continue
				}
				adaptation := adapter.Adapt(a.ctx, course.ExtractCourse(doc))
				path, err := course.Save(a.cfg.Course.OutputDir, adaptation, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Adapted %s -> %s\n", file, path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "markdown", "output format: markdown or json")
	return cmd
}

// quietContext silences logging while the terminal UI owns the screen, since
// log lines would draw over the alternate screen.
func quietContext(ctx context.Context) context.Context {
	quiet := &logger.Config{Level: logger.DisabledLevel, Output: io.Discard}
	logger.Init(quiet)
	return logger.ContextWithLogger(ctx, logger.NewLogger(quiet))
}
