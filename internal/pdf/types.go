package pdf

// AttachmentInfo is one embedded file in an extraction manifest.
type AttachmentInfo struct {
	Name     string `json:"name"`
	Size     int    `json:"size"`
	MIMEType string `json:"mime"`
}

// ImageInfo is one extracted image in an extraction manifest.
type ImageInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Page     int    `json:"page"`
	MIMEType string `json:"mime"`
	Size     int    `json:"size"`
}

// ExtractResult is the manifest returned by Extract. The token dereferences
// the stored artifacts on later lookups until it expires.
type ExtractResult struct {
	Token           string            `json:"token"`
	Metadata        map[string]string `json:"pdf_metadata"`
	AttachmentCount int               `json:"attachment_count"`
	Attachments     []AttachmentInfo  `json:"attachments"`
	ImageCount      int               `json:"image_count"`
	Images          []ImageInfo       `json:"images"`
}

// EmbedRequest carries a document plus the file to embed into it.
type EmbedRequest struct {
	PDFBytes         []byte
	FileName         string
	FileBytes        []byte
	DeclaredMIMEType string
	Placement        string
}

// EmbedResult is the outcome of an embed operation. When the attachment was
// embedded but the image stamp failed, PDFBytes still holds the document with
// the attachment and the accompanying error is ErrStampFailed.
type EmbedResult struct {
	PDFBytes       []byte `json:"-"`
	AttachmentName string `json:"attachment_name"`
	Stamped        bool   `json:"stamped"`
	StampError     string `json:"stamp_error,omitempty"`
}

// ArtifactPayload is a downloadable attachment or image body.
type ArtifactPayload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// ImagePreviewResult is the preview response for one extracted image.
// DataURL is nil when no browser-safe representation could be produced.
type ImagePreviewResult struct {
	Type     string            `json:"type"`
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Page     int               `json:"page"`
	MIMEType string            `json:"mime"`
	Exif     map[string]string `json:"exif"`
	DataURL  *string           `json:"dataUrl"`
}

// AttachmentPreviewResult is the preview response for one attachment: an
// inline data URL for image types, an informational entry for everything
// else.
type AttachmentPreviewResult struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Size     int    `json:"size,omitempty"`
	MIMEType string `json:"mime"`
	DataURL  string `json:"dataUrl,omitempty"`
	Message  string `json:"message,omitempty"`
}
