// Package main is the entry point for the pybox MCP server.
//
// pybox executes Python code submitted over the Model Context Protocol in an
// isolated interpreter, persists per-execution artifacts on disk, and serves
// results and artifact resources back to callers. The process mode is
// selected by the first command-line argument:
//
//	pybox pipe-mode              serve MCP over stdin/stdout
//	pybox stream-mode [--port]   serve MCP over streamable HTTP
//	pybox push-mode [--port]     serve MCP over SSE
//	pybox warmup-mode            pre-warm the engine and exit
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, zap for structured logging, and viper for
// configuration.
package main
