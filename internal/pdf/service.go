// Package pdf orchestrates attachment and image extraction, embedding, and
// artifact lookups against the ephemeral store.
package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/zach2017/pdfbundle/internal/pdf/attach"
	"github.com/zach2017/pdfbundle/internal/pdf/imaging"
	"github.com/zach2017/pdfbundle/internal/pdf/overlay"
	"github.com/zach2017/pdfbundle/internal/store"
)

// Service handles document operations by orchestrating the extraction and
// compositing components against the shared artifact store.
type Service struct {
	maxUploadSize int64
	maxImages     int
	artifacts     *store.Store
}

// NewService creates a service with the given bounds and backing store.
func NewService(maxUploadSize int64, maxImages int, artifacts *store.Store) *Service {
	if maxImages <= 0 {
		maxImages = imaging.DefaultMaxImages
	}
	return &Service{
		maxUploadSize: maxUploadSize,
		maxImages:     maxImages,
		artifacts:     artifacts,
	}
}

// MaxUploadSize returns the configured upload bound in bytes.
func (s *Service) MaxUploadSize() int64 {
	return s.maxUploadSize
}

// Extract decodes a document's attachments and images, stores the artifacts
// under a fresh token, and returns the manifest. Individually malformed
// entries are skipped by the underlying extractors; only a document that
// cannot be opened at all fails the request.
func (s *Service) Extract(pdfBytes []byte) (*ExtractResult, error) {
	if err := s.checkUpload(pdfBytes); err != nil {
		return nil, err
	}

	ctx, err := s.parse(pdfBytes)
	if err != nil {
		return nil, err
	}

	attachments, _ := attach.ExtractWithFallback(ctx, pdfBytes)
	images, _ := imaging.Extract(ctx, s.maxImages)

	bundle := &store.Bundle{
		PDFBytes:    pdfBytes,
		Attachments: attachments,
		Images:      images,
	}
	token := s.artifacts.Put(bundle)

	result := &ExtractResult{
		Token:           token,
		Metadata:        documentMetadata(ctx),
		AttachmentCount: len(attachments),
		Attachments:     make([]AttachmentInfo, 0, len(attachments)),
		ImageCount:      len(images),
		Images:          make([]ImageInfo, 0, len(images)),
	}

	for name, data := range attachments {
		result.Attachments = append(result.Attachments, AttachmentInfo{
			Name:     name,
			Size:     len(data),
			MIMEType: guessMIMEType(name),
		})
	}
	sort.Slice(result.Attachments, func(i, j int) bool {
		return strings.ToLower(result.Attachments[i].Name) < strings.ToLower(result.Attachments[j].Name)
	})

	for i := range images {
		img := &images[i]
		result.Images = append(result.Images, ImageInfo{
			ID:       img.ID,
			Name:     img.Name,
			Page:     img.Page,
			MIMEType: img.MIMEType,
			Size:     len(img.Data),
		})
	}

	return result, nil
}

// Embed attaches a file to the document and, when the file is an image,
// stamps it onto the first page. A failed stamp after a successful embed
// returns the attachment-only document together with ErrStampFailed, so the
// caller can tell partial success from total failure.
func (s *Service) Embed(req EmbedRequest) (*EmbedResult, error) {
	if err := s.checkUpload(req.PDFBytes); err != nil {
		return nil, err
	}
	if len(req.FileBytes) == 0 {
		return nil, fmt.Errorf("%w: attachment file", ErrEmptyInput)
	}

	ctx, err := s.parse(req.PDFBytes)
	if err != nil {
		return nil, err
	}

	name := req.FileName
	if name == "" {
		name = "attachment.bin"
	}

	if err := attach.Embed(ctx, name, req.FileBytes); err != nil {
		return nil, fmt.Errorf("failed to embed attachment: %w", err)
	}

	result := &EmbedResult{AttachmentName: name}

	var stampErr error
	if isImageFile(name, req.DeclaredMIMEType) && ctx.PageCount > 0 {
		// StampFirstPage only mutates the document once every fallible step
		// has succeeded, so a stamp failure leaves the attachment intact.
		stampErr = overlay.StampFirstPage(ctx, req.FileBytes, req.Placement)
		result.Stamped = stampErr == nil
	}

	out, err := writeDocument(ctx)
	if err != nil {
		return nil, err
	}
	result.PDFBytes = out

	if stampErr != nil {
		result.StampError = stampErr.Error()
		return result, fmt.Errorf("%w: %v", ErrStampFailed, stampErr)
	}
	return result, nil
}

// ComposeOverlay renders a one-page document with the image placed on a page
// of the given dimensions. Exposed for callers that merge overlays
// themselves.
func (s *Service) ComposeOverlay(imageBytes []byte, pageW, pageH float64, placement string) ([]byte, error) {
	return overlay.ComposeOverlay(imageBytes, pageW, pageH, placement)
}

// Attachment returns an attachment body by token and name.
func (s *Service) Attachment(token, name string) (*ArtifactPayload, error) {
	bundle, ok := s.artifacts.Get(token)
	if !ok {
		return nil, fmt.Errorf("%w: token", ErrNotFound)
	}
	data, ok := bundle.Attachments[name]
	if !ok {
		return nil, fmt.Errorf("%w: attachment %q", ErrNotFound, name)
	}
	return &ArtifactPayload{Name: name, MIMEType: guessMIMEType(name), Data: data}, nil
}

// AttachmentPreview returns an inline preview for image attachments and an
// informational entry for everything else.
func (s *Service) AttachmentPreview(token, name string) (*AttachmentPreviewResult, error) {
	payload, err := s.Attachment(token, name)
	if err != nil {
		return nil, err
	}

	if isImageFile(name, payload.MIMEType) {
		return &AttachmentPreviewResult{
			Type:     "image",
			MIMEType: payload.MIMEType,
			DataURL:  dataURL(payload.MIMEType, payload.Data),
		}, nil
	}

	return &AttachmentPreviewResult{
		Type:     "info",
		Name:     name,
		Size:     len(payload.Data),
		MIMEType: payload.MIMEType,
		Message:  "No built-in preview for this file type. You can still download it.",
	}, nil
}

// Image returns an extracted image's canonical payload by token and id.
func (s *Service) Image(token, id string) (*ArtifactPayload, error) {
	record, err := s.imageRecord(token, id)
	if err != nil {
		return nil, err
	}
	return &ArtifactPayload{Name: record.Name, MIMEType: record.MIMEType, Data: record.Data}, nil
}

// ImagePreview returns the preview response for an extracted image. DataURL
// stays nil for download-only records.
func (s *Service) ImagePreview(token, id string) (*ImagePreviewResult, error) {
	record, err := s.imageRecord(token, id)
	if err != nil {
		return nil, err
	}

	result := &ImagePreviewResult{
		Type:     "image",
		ID:       record.ID,
		Name:     record.Name,
		Page:     record.Page,
		MIMEType: record.MIMEType,
		Exif:     imaging.ExifTags(record.Data),
	}
	if record.HasPreview() {
		url := dataURL(record.PreviewMIMEType, record.PreviewData)
		result.DataURL = &url
	}
	return result, nil
}

func (s *Service) imageRecord(token, id string) (*imaging.Record, error) {
	bundle, ok := s.artifacts.Get(token)
	if !ok {
		return nil, fmt.Errorf("%w: token", ErrNotFound)
	}
	record, ok := bundle.Image(id)
	if !ok {
		return nil, fmt.Errorf("%w: image %q", ErrNotFound, id)
	}
	return record, nil
}

// checkUpload enforces the size bound before any decoding begins.
func (s *Service) checkUpload(pdfBytes []byte) error {
	if len(pdfBytes) == 0 {
		return fmt.Errorf("%w: document", ErrEmptyInput)
	}
	if s.maxUploadSize > 0 && int64(len(pdfBytes)) > s.maxUploadSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(pdfBytes), s.maxUploadSize)
	}
	return nil
}

func (s *Service) parse(pdfBytes []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(pdfBytes), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return ctx, nil
}

func writeDocument(ctx *model.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	return buf.Bytes(), nil
}

func dataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
