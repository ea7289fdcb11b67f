package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/despecter/internal/pipeline"
	"github.com/Sumatoshi-tech/despecter/pkg/rewrite"
)

// outputSuffix replaces the input extension on recovered files.
const outputSuffix = ".deob.py"

const outputFileMode = 0o644

// fileReport is one file's entry in the YAML report.
type fileReport struct {
	Path    string       `yaml:"path"`
	Output  string       `yaml:"output,omitempty"`
	Error   string       `yaml:"error,omitempty"`
	Renames []string     `yaml:"renames,omitempty"`
	Log     *rewrite.Log `yaml:"log,omitempty"`
}

// writeResults persists outputs, prints the summary table and optional
// diffs, and writes the YAML report when requested. A non-nil error means
// at least one file failed.
func writeResults(results []pipeline.FileResult, opts *commonOptions) error {
	reports := make([]fileReport, 0, len(results))
	failed := 0

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(table.Row{"File", "Status", "Rewrites", "Renames", "Output"})

	for _, res := range results {
		report := processResult(res, opts, tbl)
		if report.Error != "" {
			failed++
		}

		reports = append(reports, report)
	}

	fmt.Fprintln(os.Stdout, tbl.Render())

	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, reports); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results)) //nolint:err113 // top-level summary error.
	}

	return nil
}

func processResult(res pipeline.FileResult, opts *commonOptions, tbl table.Writer) fileReport {
	report := fileReport{Path: res.Path}

	if res.Err != nil {
		report.Error = res.Err.Error()
		tbl.AppendRow(table.Row{res.Path, color.RedString("failed"), "", "", res.Err.Error()})

		return report
	}

	report.Log = res.Result.Log
	report.Renames = res.Result.Renames.Pairs()

	dest := outputPath(res.Path, opts.outputDir)
	if err := os.WriteFile(dest, []byte(res.Result.Source), outputFileMode); err != nil {
		report.Error = err.Error()
		tbl.AppendRow(table.Row{res.Path, color.RedString("failed"), "", "", err.Error()})

		return report
	}

	report.Output = dest

	status := color.GreenString("ok")
	if res.Result.Log.DidNotConverge {
		status = color.YellowString("partial")
	}

	tbl.AppendRow(table.Row{
		res.Path,
		status,
		res.Result.Log.Applied(),
		res.Result.Renames.Count(),
		fmt.Sprintf("%s (%s)", dest, humanize.Bytes(uint64(len(res.Result.Source)))),
	})

	if opts.showDiff {
		printDiff(res.Path, res.Result.Source)
	}

	return report
}

// printDiff renders the input/output diff for one file. The input is read
// again; it was already readable moments ago.
func printDiff(path, output string) {
	src, err := os.ReadFile(path)
	if err != nil {
		return
	}

	fmt.Fprintf(os.Stdout, "--- %s\n%s\n", path, rewrite.Diff(string(src), output))
}

func outputPath(input, dir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + outputSuffix
	if dir == "" {
		dir = filepath.Dir(input)
	}

	return filepath.Join(dir, base)
}

func writeReport(path string, reports []fileReport) error {
	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, outputFileMode); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
