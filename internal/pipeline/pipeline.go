// Package pipeline wires the stages together: parse, rewrite to fixed
// point, simplify, rename, emit. Recovery additionally runs the Specter
// container stages around a decompiler collaborator.
package pipeline

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/despecter/internal/pycdc"
	"github.com/Sumatoshi-tech/despecter/pkg/emit"
	"github.com/Sumatoshi-tech/despecter/pkg/patterns"
	"github.com/Sumatoshi-tech/despecter/pkg/pysrc"
	"github.com/Sumatoshi-tech/despecter/pkg/rename"
	"github.com/Sumatoshi-tech/despecter/pkg/rewrite"
	"github.com/Sumatoshi-tech/despecter/pkg/simplify"
	"github.com/Sumatoshi-tech/despecter/pkg/specter"
)

// maxRounds caps the engine/simplifier interleave. Each round runs the
// pattern engine to its own fixed point, so a handful of rounds is plenty.
const maxRounds = 4

// Options controls one pipeline run.
type Options struct {
	MaxPasses int  // rewrite engine pass cap per round
	Rename    bool // rename obfuscated identifiers
	Banner    bool // prepend the recovery warning banner
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{MaxPasses: rewrite.DefaultMaxPasses, Rename: true, Banner: true}
}

// Result is the outcome of a pipeline run on one source text.
type Result struct {
	Source  string
	Log     *rewrite.Log
	Renames rename.RenameMap
}

// Clean runs the tree-level pipeline: parse, pattern rewriting interleaved
// with constant and dead-code simplification until nothing changes, then
// renaming, then emission. The log covers every engine round.
func Clean(ctx context.Context, src []byte, opts Options) (*Result, error) {
	root, err := pysrc.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}

	engine := rewrite.NewEngine(patterns.Catalog(), rewrite.WithMaxPasses(opts.MaxPasses))
	log := &rewrite.Log{}

	for range maxRounds {
		var roundLog *rewrite.Log

		root, roundLog = engine.Run(root)
		log.Merge(roundLog)

		simplified := simplify.Simplify(root) + simplify.RemoveUnused(root)
		if roundLog.Applied() == 0 && simplified == 0 {
			break
		}
	}

	res := &Result{Log: log}

	if opts.Rename {
		res.Renames = rename.Apply(root)
	}

	res.Source = emit.Emit(root)

	return res, nil
}

// Recover runs the full Specter flow: extract the marshalled bytecode from
// the obfuscated file, decompile it via the collaborator, reassemble the
// scrambled source, then Clean the result. The warning banner is prepended
// unless disabled.
func Recover(ctx context.Context, src []byte, dec pycdc.Decompiler, opts Options) (*Result, error) {
	root, err := pysrc.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("parse obfuscated source: %w", err)
	}

	bytecode, err := specter.ExtractBytecode(root)
	if err != nil {
		return nil, err
	}

	decompiled, err := dec.Decompile(ctx, bytecode)
	if err != nil {
		return nil, err
	}

	decompiledRoot, err := pysrc.Parse(ctx, []byte(decompiled))
	if err != nil {
		return nil, fmt.Errorf("parse decompiled source: %w", err)
	}

	recovered, err := specter.RecoverSource(decompiledRoot)
	if err != nil {
		return nil, err
	}

	res, err := Clean(ctx, []byte(recovered), opts)
	if err != nil {
		return nil, fmt.Errorf("clean recovered source: %w", err)
	}

	if opts.Banner {
		res.Source = specter.Signature + res.Source
	}

	return res, nil
}
