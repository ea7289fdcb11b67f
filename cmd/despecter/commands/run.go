// Package commands implements CLI command handlers for despecter.
package commands

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/despecter/internal/config"
	"github.com/Sumatoshi-tech/despecter/internal/pipeline"
	"github.com/Sumatoshi-tech/despecter/internal/pycdc"
)

// commonOptions are shared by the run and clean commands.
type commonOptions struct {
	configPath string
	outputDir  string
	reportPath string
	workers    int
	noColor    bool
	showDiff   bool
	noRename   bool
}

func (o *commonOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configPath, "config", "", "path to a .despecter.yaml config file")
	cmd.Flags().StringVarP(&o.outputDir, "output-dir", "o", "", "directory for recovered files (default: alongside input)")
	cmd.Flags().StringVar(&o.reportPath, "report", "", "write the YAML rewrite report to this path")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "parallel workers (0 = one per CPU)")
	cmd.Flags().BoolVar(&o.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&o.showDiff, "diff", false, "print a diff between input and output")
	cmd.Flags().BoolVar(&o.noRename, "no-rename", false, "keep obfuscated identifier names")
}

type runOptions struct {
	commonOptions

	pycdcPath string
	noBanner  bool
}

// NewRunCommand builds the full-recovery command.
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <file.py> [file.py ...]",
		Short: "Recover source from Specter-obfuscated files",
		Long: `Run the full recovery flow on obfuscated files: extract the marshalled
bytecode, decompile it with pycdc, descramble the state table, then clean
and rename the result.

Examples:
  despecter run obfuscated.py
  despecter run --pycdc ./decompylepp/pycdc -o recovered/ src/*.py`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecover(cmd.Context(), args, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.pycdcPath, "pycdc", "", "path to the pycdc binary (default: PATH lookup)")
	cmd.Flags().BoolVar(&opts.noBanner, "no-banner", false, "omit the recovery warning banner")

	return cmd
}

func runRecover(ctx context.Context, paths []string, opts *runOptions) error {
	if opts.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	if opts.pycdcPath != "" {
		cfg.Pycdc.Binary = opts.pycdcPath
	}

	if opts.workers != 0 {
		cfg.Runner.Workers = opts.workers
	}

	pipeOpts := pipeline.Options{
		MaxPasses: cfg.Rewrite.MaxPasses,
		Rename:    cfg.Rename.Enabled && !opts.noRename,
		Banner:    cfg.Runner.Banner && !opts.noBanner,
	}

	dec := pycdc.NewSubprocess(cfg.Pycdc.Binary)

	runner := pipeline.NewRunner(cfg.Runner.Workers)
	results := runner.Run(ctx, paths, func(ctx context.Context, src []byte) (*pipeline.Result, error) {
		return pipeline.Recover(ctx, src, dec, pipeOpts)
	})

	return writeResults(results, &opts.commonOptions)
}
