// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package implements an MCP-compliant server that exposes the
// run_python_code tool backed by the execution engine, plus read-only
// resources addressing previously generated artifacts. It uses the
// mark3labs/mcp-go library for the protocol details.
//
// One core service serves three mutually exclusive transport bindings
// selected at process start: stdio (pipe), streamable HTTP (bidirectional
// multiplexed stream), and SSE (singleton push channel). Session lifecycle
// events from any transport feed the same session registry.
//
// Usage:
//
//	srv, err := mcpserver.New(cfg, logger, eng, registry, manager, m)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = srv.ServeStdio() // or srv.ServeStreamableHTTP() / srv.ServeSSE()
package mcpserver
