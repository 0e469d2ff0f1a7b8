package pdf

import (
	"fmt"

	"github.com/zach2017/pdfbundle/internal/descriptions"
)

// ToolInfo describes one MCP tool for server info responses.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult reports server identity, configured bounds, artifact store
// state, and the available tool surface.
type ServerInfoResult struct {
	ServerName      string     `json:"server_name"`
	Version         string     `json:"version"`
	MaxUploadSize   int64      `json:"max_upload_size"`
	MaxImages       int        `json:"max_images"`
	StoreTTLSeconds int        `json:"store_ttl_seconds"`
	ActiveBundles   int        `json:"active_bundles"`
	AvailableTools  []ToolInfo `json:"available_tools"`
	UsageGuidance   string     `json:"usage_guidance"`
}

// ServerInfo returns the current server capabilities and store state.
func (s *Service) ServerInfo(serverName, version string) *ServerInfoResult {
	return &ServerInfoResult{
		ServerName:      serverName,
		Version:         version,
		MaxUploadSize:   s.maxUploadSize,
		MaxImages:       s.maxImages,
		StoreTTLSeconds: int(s.artifacts.TTL().Seconds()),
		ActiveBundles:   s.artifacts.Len(),
		AvailableTools:  availableTools(),
		UsageGuidance:   s.usageGuidance(),
	}
}

// availableTools returns the list of available tools
func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "pdf_extract",
			Description: descriptions.GetToolDescription("pdf_extract"),
			Usage: "Use this tool to pull every embedded attachment and page image out of a PDF. " +
				"The returned token keys all follow-up artifact lookups.",
			Parameters: "path (required): Full path to the PDF file (supports both absolute and relative paths)",
		},
		{
			Name:        "pdf_embed",
			Description: descriptions.GetToolDescription("pdf_embed"),
			Usage: "Use this tool to attach a file to a PDF. Image files are additionally stamped " +
				"onto the first page in the chosen corner.",
			Parameters: "path (required): Full path to the PDF file, " +
				"file (required): Full path to the file to embed, " +
				"output (optional): Where to write the result (defaults next to the input), " +
				"placement (optional): top-right, top-left, bottom-left, or bottom-right",
		},
		{
			Name:        "pdf_attachment",
			Description: descriptions.GetToolDescription("pdf_attachment"),
			Usage:       "Use this tool to save one extracted attachment to disk.",
			Parameters: "token (required): Extraction token, " +
				"name (required): Attachment name from the manifest, " +
				"output (optional): Where to write the file (defaults to the attachment name in the configured directory)",
		},
		{
			Name:        "pdf_attachment_preview",
			Description: descriptions.GetToolDescription("pdf_attachment_preview"),
			Usage:       "Use this tool to preview an attachment inline before downloading it.",
			Parameters: "token (required): Extraction token, " +
				"name (required): Attachment name from the manifest",
		},
		{
			Name:        "pdf_image",
			Description: descriptions.GetToolDescription("pdf_image"),
			Usage:       "Use this tool to save one extracted page image to disk in its canonical form.",
			Parameters: "token (required): Extraction token, " +
				"id (required): Image id from the manifest, " +
				"output (optional): Where to write the file (defaults to the image name in the configured directory)",
		},
		{
			Name:        "pdf_image_preview",
			Description: descriptions.GetToolDescription("pdf_image_preview"),
			Usage:       "Use this tool to view an extracted image and its EXIF tags inline.",
			Parameters: "token (required): Extraction token, " +
				"id (required): Image id from the manifest",
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Use this tool to get comprehensive server information and available capabilities.",
			Parameters:  "No parameters required",
		},
	}
}

// usageGuidance returns comprehensive usage guidance
func (s *Service) usageGuidance() string {
	maxUploadMB := s.maxUploadSize / (1024 * 1024)
	ttlMinutes := int(s.artifacts.TTL().Minutes())

	return fmt.Sprintf(`PDF Bundle Server Usage Guide:

1. EXTRACT FIRST:
   - Use 'pdf_extract' on a PDF to get a manifest of its attachments and images
   - Keep the returned token; every artifact lookup needs it

2. FETCH ARTIFACTS:
   - Use 'pdf_attachment' with the token and a manifest name to save an embedded file
   - Use 'pdf_image' with the token and a manifest id to save a page image
   - Image ids look like p<page>_<n>_<resource> and come from the manifest

3. PREVIEW BEFORE DOWNLOADING:
   - Use 'pdf_attachment_preview' for an inline look at image attachments
   - Use 'pdf_image_preview' for an inline look at page images plus their EXIF tags
   - Non-previewable content returns information instead of an error

4. EMBED AND STAMP:
   - Use 'pdf_embed' to attach any file to a PDF
   - Image files are also stamped onto the first page; pick a corner with 'placement'
   - Check the stamped flag: a failed stamp still embeds the attachment

IMPORTANT NOTES:
- The server can handle documents up to %dMB
- Extraction tokens expire after %d minutes; re-extract when lookups return not-found
- At most %d images are extracted per document
- Attachments are returned byte-for-byte as stored in the document
- Raw raster images are reconstructed as PNG; JPEG and JPEG 2000 keep their original bytes`,
		maxUploadMB, ttlMinutes, s.maxImages)
}
