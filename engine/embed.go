package engine

import _ "embed"

// runnerSource is the Python harness that drives one execution. It splits
// off a trailing top-level expression, supports top-level await, and writes
// the return value and any traceback into the arena's control directory.
//
//go:embed runner.py
var runnerSource string
