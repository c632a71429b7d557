// Package engine provides the Python execution engine.
//
// The engine package runs one code snippet to completion inside an isolated
// interpreter process. Every execution gets its own arena directory: user
// files are written there, the interpreter runs with the arena as its working
// directory, and any file the script creates in the arena is collected as a
// generated file. The shared process working directory is never touched, so
// concurrent executions from different sessions cannot see each other's
// output files.
//
// Scripts may declare required packages in an inline metadata comment block:
//
//	# /// script
//	# dependencies = ["numpy", "pandas"]
//	# ///
//
// The engine parses the block, installs the packages before the run when
// dependency installation is enabled, and reports them in the result.
//
// Usage:
//
//	eng := engine.New(logger, cfg)
//	result, err := eng.Execute(ctx, []engine.CodeFile{
//	    {Name: "main.py", Content: "1 + 1", Active: true},
//	})
package engine
