package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Extraction Tools
	PDFExtractDescription = `Extract all embedded attachments and page images from a PDF document.

**When to use:** Need the files embedded in a PDF, the images drawn on its pages, or both, together with the document's metadata.

**Why it's useful:** Decodes the embedded-file name tree and every page's image XObjects in one pass, stores the artifacts under a short-lived token, and returns a manifest so follow-up tools can fetch individual items without re-reading the file.

**Examples:**
• Attachment recovery: "Extract report.pdf to list its embedded spreadsheets"
• Image inventory: "Get all images from scanned-invoice.pdf with their dimensions"
• Bundle inspection: "Extract submission.pdf to see what files were packaged inside"

**Common workflows:**
1. Inspection: Extract → Review manifest → Fetch interesting artifacts by name or id
2. Preview Loop: Extract → pdf_image_preview each image → Pick the right one
3. Round Trip: pdf_embed a file → Extract the result → Verify the attachment is present

**Best practices:** The returned token expires after the configured TTL (15 minutes by default); re-run extraction if lookups start returning not-found.`

	PDFEmbedDescription = `Embed a file into a PDF as an attachment, stamping images onto the first page.

**When to use:** Need to package a file inside a PDF, or to visibly stamp an image (logo, signature, seal) onto the document.

**Why it's useful:** Registers the file in the document's embedded-file name tree so any PDF reader can recover it, and for image files additionally composites a scaled overlay into a page corner.

**Examples:**
• Data packaging: "Embed data.csv into report.pdf so the numbers travel with the document"
• Visual stamping: "Embed logo.png into letter.pdf stamped in the top-right corner"
• Evidence bundling: "Attach original-email.txt to case-file.pdf"

**Common workflows:**
1. Stamping: Embed image with a placement → Verify stamped flag in response
2. Packaging: Embed data files → Extract later to recover them byte-for-byte
3. Corner Choice: Pass placement top-left, top-right, bottom-left, or bottom-right

**Best practices:** A failed stamp still returns the document with the attachment embedded; check the stamped flag and stamp_error rather than assuming total failure.`

	// Artifact Tools
	PDFAttachmentDescription = `Fetch one extracted attachment's bytes by token and name.

**When to use:** After pdf_extract, to download a specific embedded file from the manifest.

**Why it's useful:** Returns the exact stored bytes with an inferred media type, without re-parsing the source document.

**Examples:**
• Targeted download: "Get data.csv from the extraction token for analysis"
• Verification: "Fetch the embedded contract.pdf to confirm its contents"

**Common workflows:**
1. Selective Recovery: Extract → Pick attachments from manifest → Fetch each by name
2. Pipeline Handoff: Fetch attachment → Feed bytes to downstream processing

**Best practices:** Names come from the extraction manifest verbatim; an expired token and a wrong name are indistinguishable, both return not-found.`

	PDFAttachmentPreviewDescription = `Preview an extracted attachment inline when it is an image, or describe it otherwise.

**When to use:** Want to look at an attachment before downloading it, or to decide whether it is worth fetching.

**Why it's useful:** Image attachments come back as a browser-ready data URL; other types return name, size, and media type so nothing errors on non-previewable content.

**Examples:**
• Quick look: "Preview photo.jpg from the extraction to check it's the right image"
• Triage: "Preview each attachment to separate images from data files"

**Common workflows:**
1. Visual Triage: Extract → Preview attachments → Download only what's needed
2. Display: Preview image attachment → Render data URL directly

**Best practices:** Non-image attachments return an informational entry, not an error; use pdf_attachment to download them.`

	PDFImageDescription = `Fetch one extracted page image's canonical bytes by token and image id.

**When to use:** After pdf_extract, to download a specific image listed in the manifest.

**Why it's useful:** Returns the image in its canonical form: original codec bytes for JPEG/JPEG 2000/TIFF-wrapped data, or a reconstructed PNG for raw raster streams.

**Examples:**
• Asset recovery: "Get image p1_2_Im1 from the extraction for reuse"
• Archival: "Download every image id from the manifest"

**Common workflows:**
1. Selective Recovery: Extract → Pick image ids → Fetch each
2. Reprocessing: Fetch canonical bytes → Run OCR or image analysis

**Best practices:** Image ids encode page and ordinal (p<page>_<n>_<resource>); take them from the manifest rather than constructing them.`

	PDFImagePreviewDescription = `Preview an extracted page image inline with its EXIF tags.

**When to use:** Want to see an extracted image and its camera or editing metadata before downloading.

**Why it's useful:** Returns a data URL preview when a browser-safe rendering exists, plus flattened EXIF tags; download-only formats return metadata with a null preview instead of erroring.

**Examples:**
• Visual check: "Preview p2_5_Im3 to confirm it's the signature image"
• Metadata audit: "Check EXIF tags of extracted photos for capture dates"

**Common workflows:**
1. Visual Triage: Extract → Preview images → Fetch the right ones with pdf_image
2. Metadata Review: Preview → Inspect EXIF → Flag images with location data

**Best practices:** A null dataUrl means the codec has no browser-safe preview (for example raw CCITT fax data); the canonical bytes are still downloadable.`

	// Utility Tools
	PDFServerInfoDescription = `Get real-time server status, available tools, and system capabilities.

**When to use:** Starting work with the PDF server, troubleshooting issues, or checking available functionality.

**Why it's useful:** Provides complete overview of server capabilities, current configuration, and artifact store state for informed decision-making.

**Examples:**
• System check: "Verify server is ready and all tools are available before batch processing"
• Troubleshooting: "Check server info to diagnose why tokens are expiring"
• Capability discovery: "See all available tools and their descriptions for new projects"

**Common workflows:**
1. Session Startup: Check server info → Verify capabilities → Plan processing approach
2. Debugging: Review server status → Check upload bounds and TTL → Verify tool availability
3. Planning: Review available tools → Choose appropriate methods → Execute workflow

**Best practices:** Run at start of sessions; reports the configured upload bound, image cap, and artifact TTL.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"pdf_extract":            PDFExtractDescription,
	"pdf_embed":              PDFEmbedDescription,
	"pdf_attachment":         PDFAttachmentDescription,
	"pdf_attachment_preview": PDFAttachmentPreviewDescription,
	"pdf_image":              PDFImageDescription,
	"pdf_image_preview":      PDFImagePreviewDescription,
	"pdf_server_info":        PDFServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
