package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/complyscan/internal/log"
	"github.com/felixgeelhaar/complyscan/internal/telemetry"
	"github.com/felixgeelhaar/complyscan/internal/version"
)

// CommandContext holds the persistent flags of one invocation. Commands read
// it in RunE instead of sharing package-level flag variables.
type CommandContext struct {
	LogLevel  string
	LogFormat string
	Trace     bool
	NoColor   bool
}

// NewCommandContext extracts command context from cobra.Command flags
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	logFormat, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}

	trace, err := cmd.Flags().GetBool("trace")
	if err != nil {
		return nil, err
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Trace:     trace,
		NoColor:   noColor,
	}, nil
}

// Logger builds the invocation logger writing to w
func (c *CommandContext) Logger(w io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(c.LogLevel)
	if c.Trace {
		cfg.Level = log.LevelDebug
	}
	cfg.Format = log.ParseFormat(c.LogFormat)
	cfg.Output = log.NewOutput(w)
	return log.New(cfg)
}

// Telemetry builds the tracer provider. With --trace, finished spans are
// logged; otherwise spans are discarded.
func (c *CommandContext) Telemetry(logger *log.Logger) *telemetry.Provider {
	if !c.Trace {
		return telemetry.Noop()
	}
	cfg := telemetry.DefaultConfig()
	cfg.Enabled = true
	cfg.ServiceVersion = version.GetInfo().Short()
	return telemetry.NewProvider(cfg, telemetry.NewLogExporter(logger))
}
