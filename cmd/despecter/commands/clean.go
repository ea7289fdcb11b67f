package commands

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/despecter/internal/config"
	"github.com/Sumatoshi-tech/despecter/internal/pipeline"
)

// NewCleanCommand builds the tree-level cleanup command for sources that
// are already decompiled.
func NewCleanCommand() *cobra.Command {
	opts := &commonOptions{}

	cmd := &cobra.Command{
		Use:   "clean <file.py> [file.py ...]",
		Short: "Clean obfuscation idioms from decompiled sources",
		Long: `Run only the tree-level pipeline: pattern rewriting, constant and
control-flow simplification, and identifier renaming. Use this on files
that are already valid Python, for example decompiler output.

Examples:
  despecter clean decompiled.py
  despecter clean --diff --report report.yaml src/*.py`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), args, opts)
		},
	}

	opts.register(cmd)

	return cmd
}

func runClean(ctx context.Context, paths []string, opts *commonOptions) error {
	if opts.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	if opts.workers != 0 {
		cfg.Runner.Workers = opts.workers
	}

	pipeOpts := pipeline.Options{
		MaxPasses: cfg.Rewrite.MaxPasses,
		Rename:    cfg.Rename.Enabled && !opts.noRename,
	}

	runner := pipeline.NewRunner(cfg.Runner.Workers)
	results := runner.Run(ctx, paths, func(ctx context.Context, src []byte) (*pipeline.Result, error) {
		return pipeline.Clean(ctx, src, pipeOpts)
	})

	return writeResults(results, opts)
}
