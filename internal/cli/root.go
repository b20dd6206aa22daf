// Package cli wires the configuration, the index and the assistant into
// cobra commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"adaptrag/internal/config"
	"adaptrag/internal/logger"
)

// app holds the state every command shares once the root pre-run has loaded
// the configuration.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.AppConfig
	ctx     context.Context
}

// overrides maps viper keys (flags or ADAPTRAG_* env vars) onto the config.
var overrides = map[string]func(v *viper.Viper, cfg *config.AppConfig){
	"log.level":                    func(v *viper.Viper, c *config.AppConfig) { c.Log.Level = v.GetString("log.level") },
	"log.json":                     func(v *viper.Viper, c *config.AppConfig) { c.Log.JSON = v.GetBool("log.json") },
	"retrieval.top_k":              func(v *viper.Viper, c *config.AppConfig) { c.Retrieval.TopK = v.GetInt("retrieval.top_k") },
	"retrieval.max_context_tokens": func(v *viper.Viper, c *config.AppConfig) { c.Retrieval.MaxContextTokens = v.GetInt("retrieval.max_context_tokens") },
	"generator.language":           func(v *viper.Viper, c *config.AppConfig) { c.Generator.Language = v.GetString("generator.language") },
	"generator.model":              func(v *viper.Viper, c *config.AppConfig) { c.Generator.Model = v.GetString("generator.model") },
}

// NewRootCommand builds the adaptrag command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("ADAPTRAG")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:               "adaptrag",
		Short:             "adaptrag - research grounded assistant for adapting courses to dyslexic students",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "path to YAML config file (defaults to ./config.yaml or ~/.config/adaptrag/config.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error, disabled")
	pf.Bool("log-json", false, "emit logs as JSON")
	pf.Int("top-k", 5, "number of chunks retrieved per question")
	pf.Int("max-context-tokens", 4000, "token budget of the research context")
	pf.String("language", "fr", "answer language: fr or en")
	pf.String("model", "", "chat model used for generation")

	for key, flag := range map[string]string{
		"log.level":                    "log-level",
		"log.json":                     "log-json",
		"retrieval.top_k":              "top-k",
		"retrieval.max_context_tokens": "max-context-tokens",
		"generator.language":           "language",
		"generator.model":              "model",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newSetupCommand(a),
		newQueryCommand(a),
		newInteractiveCommand(a),
		newAdaptCommand(a),
		newExercisesCommand(a),
		newAssessmentCommand(a),
		newStatsCommand(a),
		newCourseCommand(a),
	)
	return root
}

// Execute runs the CLI until completion or an interrupt.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	var (
		cfg *config.AppConfig
		err error
	)
	if a.cfgFile == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(a.cfgFile)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	for key, apply := range overrides {
		if a.v.IsSet(key) {
			apply(a.v, cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	lc := &logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		Output:     cmd.ErrOrStderr(),
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	}
	logger.Init(lc)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a.ctx = logger.ContextWithLogger(ctx, logger.NewLogger(lc))
	return nil
}
