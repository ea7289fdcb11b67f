// Package pycdc shells out to the Decompyle++ decompiler (pycdc) to turn
// marshalled bytecode back into source. The pipeline depends only on the
// Decompiler interface so recovery stays testable without the binary.
package pycdc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Decompiler turns marshalled bytecode into Python source.
type Decompiler interface {
	Decompile(ctx context.Context, bytecode []byte) (string, error)
}

var (
	// ErrDecompilationFailed means pycdc ran but produced nothing usable.
	ErrDecompilationFailed = errors.New("decompilation failed")

	// ErrBinaryNotFound means the pycdc executable is not available.
	ErrBinaryNotFound = errors.New("pycdc binary not found")
)

// DefaultBinary is looked up on PATH when no explicit location is given.
const DefaultBinary = "pycdc"

// bytecodeVersion matches what the obfuscator targets.
const bytecodeVersion = "3.9"

// minOutputLines is the sanity floor: pycdc prints a short header even on
// garbage input, so anything at or below this many lines is a failure.
const minOutputLines = 5

// Subprocess runs pycdc as a child process against a temp file.
type Subprocess struct {
	binary string
}

// NewSubprocess builds a runner for the given binary path; empty means
// DefaultBinary on PATH.
func NewSubprocess(binary string) *Subprocess {
	if binary == "" {
		binary = DefaultBinary
	}

	return &Subprocess{binary: binary}
}

// Decompile writes the bytecode to a temporary file and captures pycdc's
// stdout. Output at or below the line floor reports ErrDecompilationFailed.
func (s *Subprocess) Decompile(ctx context.Context, bytecode []byte) (string, error) {
	binary, err := exec.LookPath(s.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, s.binary)
	}

	dir, err := os.MkdirTemp("", "despecter-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	marshalled := filepath.Join(dir, "marshalled.pym")
	if err := os.WriteFile(marshalled, bytecode, 0o600); err != nil {
		return "", fmt.Errorf("write bytecode: %w", err)
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, binary, marshalled, "-c", "-v", bytecodeVersion)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %v: %s", ErrDecompilationFailed, err, strings.TrimSpace(stderr.String()))
	}

	output := stdout.String()
	if strings.Count(output, "\n") <= minOutputLines {
		return "", fmt.Errorf("%w: output too short (%d bytes)", ErrDecompilationFailed, len(output))
	}

	return output, nil
}
