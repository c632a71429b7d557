package mcpserver

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ServeStdio starts the pipe transport: one implicit session for the
// process lifetime, requests and responses over stdin/stdout.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio",
		zap.String("session_id", s.defaultSessionID))
	return server.ServeStdio(s.mcpServer)
}

// ServeStreamableHTTP starts the multiplexed bidirectional transport. Each
// client holds a long-lived session created on initialize and reused for
// all subsequent requests and server-initiated notifications. Prometheus
// metrics are exposed on the same listener.
func (s *MCPServer) ServeStreamableHTTP() error {
	port := s.config.Server.StreamPort
	s.logger.Info("starting MCP server on streamable HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/mcp", httpServer)
	mux.Handle("/metrics", s.metrics.Handler())

	return listenAndServe(port, mux)
}

// ServeSSE starts the singleton push-channel transport: one server-to-client
// event stream per connecting client plus a message endpoint for
// client-to-server requests correlated by connection id.
func (s *MCPServer) ServeSSE() error {
	port := s.config.Server.PushPort
	s.logger.Info("starting MCP server on SSE", zap.Int("port", port))

	sseServer := server.NewSSEServer(s.mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	mux.Handle("/metrics", s.metrics.Handler())

	return listenAndServe(port, mux)
}

func listenAndServe(port int, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
