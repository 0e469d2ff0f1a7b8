package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zach2017/pdfbundle/internal/config"
	"github.com/zach2017/pdfbundle/internal/pdf"
	"github.com/zach2017/pdfbundle/internal/pdf/security"
)

// Server represents the MCP server instance
type Server struct {
	config        *config.Config
	pdfService    *pdf.Service
	mcpServer     *server.MCPServer
	pathValidator *security.PathValidator
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	pathValidator, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:        cfg,
		pdfService:    pdfService,
		mcpServer:     mcpServer,
		pathValidator: pathValidator,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Register PDF extract tool
	pdfExtractTool := mcp.NewTool(
		"pdf_extract",
		mcp.WithDescription("Extract embedded attachments and page images from a PDF file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(pdfExtractTool, s.handlePDFExtract)

	// Register PDF embed tool
	pdfEmbedTool := mcp.NewTool(
		"pdf_embed",
		mcp.WithDescription("Embed a file into a PDF as an attachment, stamping images onto the first page"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Full path to the file to embed"),
		),
		mcp.WithString("output",
			mcp.Description("Where to write the result (defaults next to the input)"),
		),
		mcp.WithString("placement",
			mcp.Description("Stamp corner: top-right, top-left, bottom-left, or bottom-right"),
		),
	)
	s.mcpServer.AddTool(pdfEmbedTool, s.handlePDFEmbed)

	// Register PDF attachment tool
	pdfAttachmentTool := mcp.NewTool(
		"pdf_attachment",
		mcp.WithDescription("Save one extracted attachment to disk by token and name"),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Extraction token"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Attachment name from the extraction manifest"),
		),
		mcp.WithString("output",
			mcp.Description("Where to write the file (defaults to the attachment name in the configured directory)"),
		),
	)
	s.mcpServer.AddTool(pdfAttachmentTool, s.handlePDFAttachment)

	// Register PDF attachment preview tool
	pdfAttachmentPreviewTool := mcp.NewTool(
		"pdf_attachment_preview",
		mcp.WithDescription("Preview an extracted attachment inline when it is an image"),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Extraction token"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Attachment name from the extraction manifest"),
		),
	)
	s.mcpServer.AddTool(pdfAttachmentPreviewTool, s.handlePDFAttachmentPreview)

	// Register PDF image tool
	pdfImageTool := mcp.NewTool(
		"pdf_image",
		mcp.WithDescription("Save one extracted page image to disk by token and id"),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Extraction token"),
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Image id from the extraction manifest"),
		),
		mcp.WithString("output",
			mcp.Description("Where to write the file (defaults to the image name in the configured directory)"),
		),
	)
	s.mcpServer.AddTool(pdfImageTool, s.handlePDFImage)

	// Register PDF image preview tool
	pdfImagePreviewTool := mcp.NewTool(
		"pdf_image_preview",
		mcp.WithDescription("Preview an extracted page image inline with its EXIF tags"),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Extraction token"),
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Image id from the extraction manifest"),
		),
	)
	s.mcpServer.AddTool(pdfImagePreviewTool, s.handlePDFImagePreview)

	// Register PDF server info tool
	pdfServerInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription("Get server information, available tools, artifact store state, and usage guidance"),
	)
	s.mcpServer.AddTool(pdfServerInfoTool, s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handlePDFExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pdfBytes, err := s.readBoundedFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Extract(pdfBytes)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatExtractResult(path, result)), nil
}

func (s *Server) handlePDFEmbed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filePath, err := request.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	placement := ""
	if p, ok := args["placement"].(string); ok {
		placement = p
	}

	output := strings.TrimSuffix(path, filepath.Ext(path)) + ".embedded.pdf"
	if o, ok := args["output"].(string); ok && o != "" {
		output = o
	}

	pdfBytes, err := s.readBoundedFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fileBytes, err := s.readBoundedFile(filePath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.EmbedRequest{
		PDFBytes:  pdfBytes,
		FileName:  filepath.Base(filePath),
		FileBytes: fileBytes,
		Placement: placement,
	}

	result, err := s.pdfService.Embed(req)
	if err != nil && !errors.Is(err, pdf.ErrStampFailed) {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outPath, werr := s.writeArtifact(output, result.PDFBytes)
	if werr != nil {
		return mcp.NewToolResultError(werr.Error()), nil
	}

	responseText := fmt.Sprintf("Embedded %s into %s\n", result.AttachmentName, path)
	responseText += fmt.Sprintf("Output: %s\n", outPath)
	responseText += fmt.Sprintf("Stamped: %t\n", result.Stamped)
	if result.StampError != "" {
		responseText += fmt.Sprintf("\n⚠️  WARNING: The attachment was embedded but the image stamp failed: %s\n",
			result.StampError)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFAttachment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, err := s.pdfService.Attachment(token, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	output := filepath.Base(payload.Name)
	if o, ok := args["output"].(string); ok && o != "" {
		output = o
	}

	outPath, err := s.writeArtifact(output, payload.Data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Saved attachment: %s\n", payload.Name)
	responseText += fmt.Sprintf("Output: %s\n", outPath)
	responseText += fmt.Sprintf("Size: %d bytes\n", len(payload.Data))
	responseText += fmt.Sprintf("Media Type: %s\n", payload.MIMEType)

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFAttachmentPreview(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	token, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.AttachmentPreview(token, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Type == "image" {
		responseText = fmt.Sprintf("Attachment preview: %s\n", name)
		responseText += fmt.Sprintf("Media Type: %s\n", result.MIMEType)
		responseText += fmt.Sprintf("Data URL:\n%s\n", result.DataURL)
	} else {
		responseText = fmt.Sprintf("Attachment: %s\n", result.Name)
		responseText += fmt.Sprintf("Size: %d bytes\n", result.Size)
		responseText += fmt.Sprintf("Media Type: %s\n", result.MIMEType)
		responseText += result.Message + "\n"
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, err := s.pdfService.Image(token, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	output := filepath.Base(payload.Name)
	if o, ok := args["output"].(string); ok && o != "" {
		output = o
	}

	outPath, err := s.writeArtifact(output, payload.Data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Saved image: %s\n", payload.Name)
	responseText += fmt.Sprintf("Output: %s\n", outPath)
	responseText += fmt.Sprintf("Size: %d bytes\n", len(payload.Data))
	responseText += fmt.Sprintf("Media Type: %s\n", payload.MIMEType)

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFImagePreview(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	token, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ImagePreview(token, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatImagePreviewResult(result)), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.pdfService.ServerInfo(s.config.ServerName, s.config.Version)
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatExtractResult(path string, result *pdf.ExtractResult) string {
	text := fmt.Sprintf("Extracted: %s\n", path)
	text += fmt.Sprintf("Token: %s\n", result.Token)

	if len(result.Metadata) > 0 {
		text += "\nDocument Metadata:\n"
		for key, value := range result.Metadata {
			text += fmt.Sprintf("  %s: %s\n", key, value)
		}
	}

	text += fmt.Sprintf("\nAttachments (%d):\n", result.AttachmentCount)
	if result.AttachmentCount == 0 {
		text += "  none\n"
	}
	for i, att := range result.Attachments {
		text += fmt.Sprintf("%d. %s (%d bytes, %s)\n", i+1, att.Name, att.Size, att.MIMEType)
	}

	text += fmt.Sprintf("\nImages (%d):\n", result.ImageCount)
	if result.ImageCount == 0 {
		text += "  none\n"
	}
	for i, img := range result.Images {
		text += fmt.Sprintf("%d. %s - page %d, %d bytes, %s\n", i+1, img.ID, img.Page, img.Size, img.MIMEType)
	}

	text += "\nUse pdf_attachment / pdf_image with the token to fetch artifacts, " +
		"or the preview tools for an inline look.\n"

	return text
}

func (s *Server) formatImagePreviewResult(result *pdf.ImagePreviewResult) string {
	text := fmt.Sprintf("Image preview: %s\n", result.ID)
	text += fmt.Sprintf("Name: %s\n", result.Name)
	text += fmt.Sprintf("Page: %d\n", result.Page)
	text += fmt.Sprintf("Media Type: %s\n", result.MIMEType)

	if len(result.Exif) > 0 {
		text += "\nEXIF Tags:\n"
		for key, value := range result.Exif {
			text += fmt.Sprintf("  %s: %s\n", key, value)
		}
	}

	if result.DataURL != nil {
		text += fmt.Sprintf("\nData URL:\n%s\n", *result.DataURL)
	} else {
		text += "\nNo inline preview for this codec. Use pdf_image to download the canonical bytes.\n"
	}

	return text
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", s.config.PDFDirectory)
	text += fmt.Sprintf("📏 Max Upload Size: %d MB\n", result.MaxUploadSize/(1024*1024))
	text += fmt.Sprintf("🖼️  Max Images Per Document: %d\n", result.MaxImages)
	text += fmt.Sprintf("⏱️  Artifact TTL: %d seconds\n", result.StoreTTLSeconds)
	text += fmt.Sprintf("📦 Active Bundles: %d\n\n", result.ActiveBundles)

	// Available tools
	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	// Usage guidance
	text += "\n" + result.UsageGuidance

	return text
}

// readBoundedFile validates a path and reads it, enforcing the upload bound
// before the bytes reach the service.
func (s *Server) readBoundedFile(path string) ([]byte, error) {
	cleanPath, err := s.pathValidator.SanitizePath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if max := s.pdfService.MaxUploadSize(); max > 0 && info.Size() > max {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), max)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	return data, nil
}

// writeArtifact validates an output path and writes the bytes there,
// returning the resolved path.
func (s *Server) writeArtifact(path string, data []byte) (string, error) {
	cleanPath, err := s.pathValidator.SanitizePath(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return "", fmt.Errorf("cannot write file: %w", err)
	}
	return cleanPath, nil
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	} else {
		return s.runStdioMode(ctx)
	}
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF bundle server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// For now, we'll just use stdio mode since the mark3labs library
	// handles the transport differently
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
