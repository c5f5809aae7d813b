// Package mcpadapter exposes classification, checklist detection and review
// as Model Context Protocol tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

const serverName = "compliance-reviewer"

type Dependencies struct {
	Extractor  ports.TextExtractor
	Classifier ports.DocumentClassifier
	Checklists ports.ProcessDetector
	Reviewer   ports.DocumentReviewer
}

type Server struct {
	deps Dependencies
	mcp  *server.MCPServer
}

func NewServer(version string, deps Dependencies) *Server {
	s := &Server{
		deps: deps,
		mcp:  server.NewMCPServer(serverName, version, server.WithToolCapabilities(false), server.WithRecovery()),
	}

	s.mcp.AddTool(mcp.NewTool("classify_document",
		mcp.WithDescription("Classify corporate document text into a checklist category."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Plain document text.")),
	), s.classifyDocument)

	s.mcp.AddTool(mcp.NewTool("detect_process",
		mcp.WithDescription("Detect the legal process from document categories and list missing documents."),
		mcp.WithArray("categories", mcp.Required(), mcp.WithStringItems(), mcp.Description("Category names of the uploaded documents.")),
	), s.detectProcess)

	s.mcp.AddTool(mcp.NewTool("review_document",
		mcp.WithDescription("Review a local .docx, .pdf or .txt file against the reference corpus and write an annotated copy."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Filesystem path of the document.")),
	), s.reviewDocument)

	return s
}

// Serve speaks MCP on in/out until ctx is done or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	slog.Info("mcp_server_started", "transport", "stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) classifyDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(s.deps.Classifier.Classify(text))), nil
}

func (s *Server) detectProcess(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["categories"].([]any)
	if !ok {
		return mcp.NewToolResultError("categories must be an array of strings"), nil
	}

	categories := make([]domain.Category, 0, len(raw))
	for _, item := range raw {
		name, ok := item.(string)
		if !ok {
			return mcp.NewToolResultError("categories must be an array of strings"), nil
		}
		category, _ := domain.ParseCategory(name)
		categories = append(categories, category)
	}
	return jsonResult(s.deps.Checklists.DetectProcess(categories))
}

func (s *Server) reviewDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc := domain.Document{ID: uuid.NewString(), Name: filepath.Base(path), Path: path}
	text, err := s.deps.Extractor.Extract(ctx, path)
	if err != nil {
		failed := domain.EmptyReview(doc.Name)
		failed.DocumentID = doc.ID
		failed.Category = domain.CategoryUnknown
		failed.Error = domain.WrapError(domain.ErrExtraction, "extract "+doc.Name, err).Error()
		return failedResult(failed)
	}
	doc.Text = text
	doc.Category = s.deps.Classifier.Classify(text)

	result, err := s.deps.Reviewer.Review(ctx, doc)
	if err != nil {
		if result == nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return failedResult(result)
	}
	return jsonResult(result)
}

// failedResult keeps the zero-issue review with its error field and flags
// the call as failed.
func failedResult(result *domain.ReviewResult) (*mcp.CallToolResult, error) {
	out, err := jsonResult(result)
	if err != nil {
		return nil, err
	}
	out.IsError = true
	return out, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
