package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/egraphx/extractors"
	"github.com/katalvlaran/egraphx/internal/config"
	"github.com/katalvlaran/egraphx/internal/logging"
)

// app is the state shared by every subcommand once the root has run.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg      *config.Config
	log      *zap.Logger
	registry *extractors.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "egraphx",
		Short: "Extract terms from e-graphs",
		Long: "egraphx picks one node per e-class of a serialized e-graph so that the\n" +
			"selected term is finite, acyclic and cheap, using one of several strategies.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return logging.Sync(a.log)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "YAML config file")
	f.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&a.logFormat, "log-format", "", "log encoding (json or console)")

	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newBenchCmd(a))

	return root
}

// setup loads the configuration, applies flag overrides and builds the
// logger and the strategy registry.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log, zapcore.AddSync(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.registry = extractors.New(cfg.Settings())
	a.log.Debug("configured",
		zap.String("config", a.configPath),
		zap.String("extractor", cfg.Extractor),
		zap.Duration("ilp_timeout", cfg.ILP.Timeout),
		zap.String("ilp_backend", cfg.ILP.Backend))

	return nil
}
