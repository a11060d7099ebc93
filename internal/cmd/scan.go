package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/complyscan/internal/collect"
	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/errors"
	"github.com/felixgeelhaar/complyscan/internal/escalation"
	"github.com/felixgeelhaar/complyscan/internal/exitcode"
	"github.com/felixgeelhaar/complyscan/internal/log"
	"github.com/felixgeelhaar/complyscan/internal/metrics"
	"github.com/felixgeelhaar/complyscan/internal/pipeline"
	"github.com/felixgeelhaar/complyscan/internal/policy"
	"github.com/felixgeelhaar/complyscan/internal/provider"
	"github.com/felixgeelhaar/complyscan/internal/report"
	"github.com/felixgeelhaar/complyscan/internal/router"
)

func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a repository and report its compliance score",
		Long: `Scan a source tree and report findings, the weighted score and the risk zone.

Findings in the uncertain confidence band are sent to the configured LLM
provider when escalation is enabled and an API key is available
(ANTHROPIC_API_KEY or OPENAI_API_KEY). Without a key the scan still runs on
heuristic verdicts alone.

Exit codes:
  0  scan completed above the --fail-on threshold
  3  the zone is at or below the --fail-on threshold
  4  the policy file is missing or invalid

Examples:
  complyscan scan
  complyscan scan ./service --format sarif --output complyscan.sarif
  complyscan scan --no-escalate --fail-on yellow
  complyscan scan --metrics-file /var/lib/node_exporter/complyscan.prom`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}

	flags := scanCmd.Flags()
	flags.String("policy", policy.DefaultPath, "policy file")
	flags.StringP("format", "f", "text", "output format: text, json, yaml, sarif, markdown")
	flags.StringP("output", "o", "", "write the report to a file instead of stdout")
	flags.Bool("no-escalate", false, "never call the LLM judge")
	flags.String("fail-on", "red", "exit 3 when the zone is at or below: red, yellow, none")
	flags.String("provider", "", "override escalation.provider (anthropic, openai)")
	flags.String("model", "", "override escalation.model")
	flags.Int("concurrency", 0, "rule units run concurrently per layer (0 = GOMAXPROCS)")
	flags.Int64("max-file-size", collect.DefaultMaxFileSize, "skip files larger than this many bytes")
	flags.String("metrics-file", "", "write Prometheus metrics in textfile format")
	flags.BoolP("verbose", "v", false, "also list passing and skipped checks")
	return scanCmd
}

// scanOptions are the scan flags after validation
type scanOptions struct {
	root        string
	policyPath  string
	policyGiven bool
	format      string
	output      string
	noEscalate  bool
	failOn      domain.Zone
	provider    string
	model       string
	concurrency int
	maxFileSize int64
	metricsFile string
	verbose     bool
}

func scanOptionsFrom(cmd *cobra.Command, args []string) (*scanOptions, error) {
	f := cmd.Flags()
	o := &scanOptions{root: "."}
	if len(args) == 1 {
		o.root = args[0]
	}

	o.policyPath, _ = f.GetString("policy")
	o.policyGiven = f.Changed("policy")
	o.format, _ = f.GetString("format")
	o.output, _ = f.GetString("output")
	o.noEscalate, _ = f.GetBool("no-escalate")
	o.provider, _ = f.GetString("provider")
	o.model, _ = f.GetString("model")
	o.concurrency, _ = f.GetInt("concurrency")
	o.maxFileSize, _ = f.GetInt64("max-file-size")
	o.metricsFile, _ = f.GetString("metrics-file")
	o.verbose, _ = f.GetBool("verbose")

	failOn, _ := f.GetString("fail-on")
	switch failOn {
	case "red", "yellow":
		o.failOn = domain.Zone(failOn)
	case "none", "":
	default:
		return nil, exitcode.Usage(fmt.Errorf("invalid --fail-on %q: must be red, yellow or none", failOn))
	}

	if _, err := report.NewFormatter(o.format, &report.Options{Writer: io.Discard}); err != nil {
		return nil, exitcode.Usage(err)
	}
	if o.concurrency < 0 {
		return nil, exitcode.Usage(fmt.Errorf("--concurrency must not be negative"))
	}
	return o, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	opts, err := scanOptionsFrom(cmd, args)
	if err != nil {
		return err
	}

	logger := cc.Logger(cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	tele := cc.Telemetry(logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tele.Shutdown(ctx)
	}()

	pol, err := loadScanPolicy(opts, logger)
	if err != nil {
		return err
	}

	fs, stats, err := collect.Collect(opts.root, collect.Options{MaxFileSize: opts.maxFileSize, Logger: logger})
	if err != nil {
		return err
	}
	logger.Info("collected files",
		"root", opts.root,
		"files", stats.Files,
		"skipped_dirs", stats.SkippedDirs,
		"too_large", stats.TooLarge,
		"binary", stats.Binary)

	sc := pipeline.ScanContext{
		Root:        opts.root,
		Policy:      pol,
		Concurrency: opts.concurrency,
		Logger:      logger,
		Tracer:      tele.Tracer(),
	}

	if !opts.noEscalate && pol.Escalation.Enabled {
		judge, err := buildJudge(&pol.Escalation, logger)
		if err != nil {
			logger.WithError(err).Warn("escalation disabled, continuing with heuristic verdicts")
		} else {
			sc.Judge = judge
			sc.Pricing = router.Cost
			if dir := pol.Escalation.CacheDir; dir != "" {
				cache, err := escalation.NewFileCache(dir)
				if err != nil {
					logger.WithError(err).Warn("oracle cache unavailable")
				} else {
					sc.Cache = cache
				}
			}
		}
	}

	reg, m := metrics.NewRegistry()
	if opts.metricsFile != "" {
		sc.Metrics = m
	}

	engine, err := pipeline.NewEngine(sc)
	if err != nil {
		return err
	}

	rep, err := engine.ScanReport(cmd.Context(), fs)
	if err != nil {
		return err
	}

	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(reg, opts.metricsFile); err != nil {
			logger.WithError(err).Warn("failed to write metrics file", "path", opts.metricsFile)
		}
	}

	if err := writeReport(cmd, rep, opts, cc.NoColor); err != nil {
		return err
	}

	s := rep.Result.Score
	return exitcode.CheckZone(s.TotalScore, s.Zone, opts.failOn)
}

// loadScanPolicy reads the policy file. A missing file at the default path
// means the built-in policy; an explicitly named file must exist.
func loadScanPolicy(opts *scanOptions, logger *log.Logger) (*policy.Policy, error) {
	pol, err := policy.LoadPolicy(opts.policyPath)
	if err != nil {
		if errors.CodeOf(err) != errors.ErrCodePolicyNotFound || opts.policyGiven {
			return nil, err
		}
		logger.Info("no policy file, using the built-in policy", "path", opts.policyPath)
		pol = policy.DefaultPolicy()
	}

	if opts.provider != "" {
		pol.Escalation.Provider = opts.provider
		if opts.model == "" {
			// the policy's model belongs to the old provider
			pol.Escalation.Model = ""
		}
	}
	if opts.model != "" {
		pol.Escalation.Model = opts.model
	}
	return pol, nil
}

// buildJudge resolves the provider and model and wraps the client as a judge.
// The resolved model is written back to esc so budget estimates and cache
// keys are computed for the model actually called.
func buildJudge(esc *policy.Escalation, logger *log.Logger) (escalation.Judge, error) {
	cfg, err := provider.ConfigFromEnv(esc.Provider, "")
	if err != nil {
		return nil, err
	}

	model, err := router.SelectModel(cfg.Name, esc.Model)
	if err != nil {
		return nil, err
	}
	cfg.Model = model.ID
	esc.Model = model.ID
	if esc.Timeout > 0 {
		cfg.Timeout = esc.Timeout
	}

	client, err := provider.New(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("escalation enabled", "provider", client.Name(), "model", client.Model())
	return provider.NewJudge(client), nil
}

func writeReport(cmd *cobra.Command, rep *pipeline.Report, opts *scanOptions, noColor bool) error {
	var w io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		if dir := filepath.Dir(opts.output); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeFileWriteFailed, "create report directory", err)
			}
		}
		f, err := os.Create(opts.output)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileWriteFailed, "create report file", err)
		}
		defer f.Close()
		w = f
		noColor = true
	}

	formatter, err := report.NewFormatter(opts.format, &report.Options{
		Writer:  w,
		NoColor: noColor,
		Verbose: opts.verbose,
	})
	if err != nil {
		return exitcode.Usage(err)
	}
	if err := formatter.Format(rep); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write report", err)
	}
	return nil
}
