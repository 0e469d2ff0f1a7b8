package pdf

import (
	"mime"
	"path/filepath"
	"strings"
)

// mimeByExtension covers the extensions this service commonly sees, so media
// types stay stable across platforms whose system mime tables differ. The
// stdlib table is the fallback. Inference is by filename only, never by
// content sniffing.
var mimeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".jp2":  "image/jp2",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".xml":  "application/xml",
	".zip":  "application/zip",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xlsm": "application/vnd.ms-excel.sheet.macroEnabled.12",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// imageExtensions gates inline previews and embed-time stamping.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// guessMIMEType infers a media type from a filename extension, defaulting to
// application/octet-stream.
func guessMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := mimeByExtension[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = strings.TrimSpace(mt[:i])
		}
		return mt
	}
	return "application/octet-stream"
}

// isImageFile reports whether a filename or declared media type marks the
// payload as an image.
func isImageFile(name, declaredMIME string) bool {
	if strings.HasPrefix(declaredMIME, "image/") {
		return true
	}
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}
