package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/pybox/pybox/artifact"
)

// registerArtifactResources registers the locator template under which any
// on-disk artifact can be fetched, plus an initial resource listing.
func (s *MCPServer) registerArtifactResources() {
	template := mcp.NewResourceTemplate(
		artifact.LocatorScheme+"://session/{sessionId}/file/{filename}",
		"Execution artifact",
		mcp.WithTemplateDescription("A file persisted for one code execution: script, output transcript, return value, or script-generated file"),
	)
	s.mcpServer.AddResourceTemplate(template, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.readArtifact(request.Params.URI)
	})

	s.syncArtifactResources()
}

// syncArtifactResources republishes the live artifact listing. The scan hits
// the filesystem every time so the list reflects what is actually on disk,
// including executions pruned by cleanup.
func (s *MCPServer) syncArtifactResources() {
	infos, err := s.manager.ListAll()
	if err != nil {
		s.logger.Warn("failed to scan artifacts for resource listing", zap.Error(err))
		return
	}

	for _, info := range infos {
		sessionID := s.manager.SessionIDForPath(info.Path)
		if sessionID == "" {
			continue
		}
		locator := artifact.BuildLocator(sessionID, info.Name)
		resource := mcp.NewResource(
			locator,
			info.Name,
			mcp.WithResourceDescription(info.Description),
			mcp.WithMIMEType(artifact.MIMEType(info.Name)),
		)
		s.mcpServer.AddResource(resource, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return s.readArtifact(request.Params.URI)
		})
	}
}

// readArtifact resolves a locator against the artifact tree. Text-like MIME
// types return decoded text, everything else base64 bytes. Malformed or
// unknown locators fail with an error naming the locator.
func (s *MCPServer) readArtifact(locator string) ([]mcp.ResourceContents, error) {
	sessionID, name, err := artifact.ParseLocator(locator)
	if err != nil {
		return nil, err
	}

	path, err := s.manager.FindSessionFile(sessionID, name)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, fmt.Errorf("resource not found: %s", locator)
		}
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource %s: %w", locator, err)
	}

	mimeType := artifact.MIMEType(name)
	if artifact.IsTextMIME(mimeType) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      locator,
				MIMEType: mimeType,
				Text:     string(content),
			},
		}, nil
	}

	return []mcp.ResourceContents{
		mcp.BlobResourceContents{
			URI:      locator,
			MIMEType: mimeType,
			Blob:     base64Encode(content),
		},
	}, nil
}
