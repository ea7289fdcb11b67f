package rewrite

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/despecter/pkg/emit"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// Entry records one applied rewrite.
type Entry struct {
	Pattern string `yaml:"pattern"`
	Pass    int    `yaml:"pass"`
	Line    int    `yaml:"line"`
	Col     int    `yaml:"col"`
	Before  string `yaml:"before"`
	After   string `yaml:"after"`
}

// SkipNote records a near-match that failed a safety condition. The tree
// was left untouched at that node.
type SkipNote struct {
	Pattern string `yaml:"pattern"`
	Pass    int    `yaml:"pass"`
	Line    int    `yaml:"line"`
	Note    string `yaml:"note"`
}

// RemainingMatch describes a node that still matched a pattern when the
// pass cap was reached.
type RemainingMatch struct {
	Pattern string `yaml:"pattern"`
	Line    int    `yaml:"line"`
	Source  string `yaml:"source"`
}

// Log is the audit trail of one engine run.
type Log struct {
	Entries        []Entry          `yaml:"entries"`
	Skips          []SkipNote       `yaml:"skips,omitempty"`
	Passes         int              `yaml:"passes"`
	DidNotConverge bool             `yaml:"did_not_converge"`
	Remaining      []RemainingMatch `yaml:"remaining,omitempty"`
}

func (l *Log) apply(pattern string, before *syntax.Node, replacement []*syntax.Node, pass int) {
	after := make([]string, 0, len(replacement))
	for _, n := range replacement {
		after = append(after, emit.Snippet(n, snippetLen))
	}

	line, col := position(before)

	l.Entries = append(l.Entries, Entry{
		Pattern: pattern,
		Pass:    pass,
		Line:    line,
		Col:     col,
		Before:  emit.Snippet(before, snippetLen),
		After:   strings.Join(after, "; "),
	})
}

func (l *Log) skip(pattern string, n *syntax.Node, note string, pass int) {
	line, _ := position(n)

	l.Skips = append(l.Skips, SkipNote{
		Pattern: pattern,
		Pass:    pass,
		Line:    line,
		Note:    note,
	})
}

// position is tolerant of synthesized nodes that carry no source span.
func position(n *syntax.Node) (line, col int) {
	if n == nil || n.Pos == nil {
		return 0, 0
	}

	return int(n.Pos.StartLine), int(n.Pos.StartCol)
}

// Merge folds another run's log into this one; used when the engine is
// re-run after out-of-band tree changes.
func (l *Log) Merge(other *Log) {
	if other == nil {
		return
	}

	l.Entries = append(l.Entries, other.Entries...)
	l.Skips = append(l.Skips, other.Skips...)
	l.Passes += other.Passes
	l.DidNotConverge = l.DidNotConverge || other.DidNotConverge
	l.Remaining = append(l.Remaining, other.Remaining...)
}

// Applied reports how many rewrites fired.
func (l *Log) Applied() int {
	return len(l.Entries)
}

// Table renders the applied rewrites as a go-pretty table.
func (l *Log) Table() string {
	if len(l.Entries) == 0 {
		return "no rewrites applied"
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false

	tbl.AppendHeader(table.Row{"Pass", "Pattern", "Line", "Before", "After"})

	for _, entry := range l.Entries {
		tbl.AppendRow(table.Row{entry.Pass, entry.Pattern, entry.Line, entry.Before, entry.After})
	}

	if l.DidNotConverge {
		tbl.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("did not converge after %d passes", l.Passes)})
	}

	return tbl.Render()
}

// YAML serializes the full log for machine consumption.
func (l *Log) YAML() ([]byte, error) {
	out, err := yaml.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal rewrite log: %w", err)
	}

	return out, nil
}

// Diff renders a character-level pretty diff between the original and the
// rewritten source.
func Diff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return dmp.DiffPrettyText(diffs)
}
