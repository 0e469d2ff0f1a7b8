// Package imaging extracts image XObjects from page resources and
// reconstructs browser-renderable previews for payloads that have no native
// browser-safe encoding.
package imaging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/zach2017/pdfbundle/internal/pdf/graph"
)

// DefaultMaxImages caps how many images one extraction returns.
const DefaultMaxImages = 50

const octetStream = "application/octet-stream"

// Record is one extracted image. Data and MIMEType always hold the canonical
// downloadable payload; PreviewData/PreviewMIMEType are set only when a
// browser-renderable form could be produced.
type Record struct {
	ID               string
	Name             string
	Page             int // 1-based
	MIMEType         string
	Data             []byte
	PreviewMIMEType  string
	PreviewData      []byte
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       string
	Filters          []string
}

// HasPreview reports whether a browser-safe preview payload exists.
func (r *Record) HasPreview() bool {
	return len(r.PreviewData) > 0 && r.PreviewMIMEType != ""
}

// Skipped records one image resource that was dropped, and why.
type Skipped struct {
	Page     int
	Resource string
	Reason   string
}

// Extract scans pages in order and returns at most maxImages records, one per
// image XObject. Classification follows the stream's filter chain; raw-sample
// payloads are reconstructed into PNG previews when the byte-length invariant
// width*height*channels <= len(payload) holds, and dropped otherwise.
func Extract(ctx *model.Context, maxImages int) ([]Record, []Skipped) {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}

	var records []Record
	var skipped []Skipped

	w := graph.New(ctx)

	for _, page := range w.Pages() {
		if len(records) >= maxImages {
			break
		}

		xobjects, ok := w.DictAt(page.Resources, "XObject")
		if !ok {
			continue
		}

		// Dictionary iteration order is unspecified; sort resource names so
		// ids and ordinals are stable across runs.
		names := make([]string, 0, len(xobjects))
		for name := range xobjects {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if len(records) >= maxImages {
				break
			}

			sd, ok := w.StreamDict(xobjects[name])
			if !ok {
				continue
			}
			if subtype, _ := w.Name(sd.Dict["Subtype"]); subtype != "Image" {
				continue
			}

			rec, skip := classify(w, sd, page.Number, len(records)+1, name)
			if skip != nil {
				skip.Page = page.Number
				skip.Resource = name
				skipped = append(skipped, *skip)
				continue
			}
			records = append(records, *rec)
		}
	}

	return records, skipped
}

// classify builds a record for one image XObject or explains why it was
// dropped.
func classify(w *graph.Walker, sd types.StreamDict, pageNr, ordinal int, resource string) (*Record, *Skipped) {
	width, _ := w.Int(sd.Dict["Width"])
	height, _ := w.Int(sd.Dict["Height"])
	bpc, ok := w.Int(sd.Dict["BitsPerComponent"])
	if !ok {
		bpc = 8
	}
	cs := colorSpaceName(w, sd.Dict)
	filters := w.FilterChain(sd)

	data, decoded := w.ResolveStream(sd)
	if !decoded {
		// Outer filter this walker cannot undo. Keep the raw payload and
		// list the image download-only.
		data = sd.Raw
	}

	rec := &Record{
		ID:               fmt.Sprintf("p%d_%d_%s", pageNr, ordinal, strings.TrimPrefix(resource, "/")),
		Page:             pageNr,
		MIMEType:         octetStream,
		Data:             data,
		Width:            width,
		Height:           height,
		BitsPerComponent: bpc,
		ColorSpace:       cs,
		Filters:          filters,
	}

	ext := "bin"
	switch {
	case hasFilter(filters, "DCTDecode"):
		rec.MIMEType, ext = "image/jpeg", "jpg"
	case hasFilter(filters, "JPXDecode"):
		rec.MIMEType, ext = "image/jp2", "jp2"
	case hasFilter(filters, "CCITTFaxDecode"):
		rec.MIMEType, ext = "image/tiff", "tif"
	}
	rec.Name = fmt.Sprintf("%s.%s", rec.ID, ext)

	switch {
	case rec.MIMEType == "image/jpeg":
		// Already browser-safe as delivered.
		rec.PreviewMIMEType = "image/jpeg"
		rec.PreviewData = data

	case decoded && (hasFilter(filters, "FlateDecode") || len(filters) == 0):
		png, ok, reason := reconstructPreview(data, width, height, bpc, cs)
		if reason != "" {
			return nil, &Skipped{Reason: reason}
		}
		if ok {
			rec.PreviewMIMEType = "image/png"
			rec.PreviewData = png
		}

	default:
		// JPEG2000, fax, or an unknown encoding: a generic raster decode is
		// attempted and its absence leaves the record download-only.
		if png, ok := decodePreview(data); ok {
			rec.PreviewMIMEType = "image/png"
			rec.PreviewData = png
		}
	}

	// When the only usable representation is the reconstructed preview, the
	// canonical payload is promoted to it so download and preview agree.
	if rec.MIMEType == octetStream && rec.PreviewMIMEType == "image/png" {
		rec.MIMEType = "image/png"
		rec.Data = rec.PreviewData
		rec.Name = fmt.Sprintf("%s.png", rec.ID)
	}

	return rec, nil
}

// colorSpaceName resolves the ColorSpace entry to a family name, taking the
// first element of array forms and defaulting to DeviceRGB.
func colorSpaceName(w *graph.Walker, d types.Dict) string {
	obj, found := d.Find("ColorSpace")
	if !found {
		return "DeviceRGB"
	}
	if name, ok := w.Name(obj); ok {
		return name
	}
	if arr, ok := w.Array(obj); ok && len(arr) > 0 {
		if name, ok := w.Name(arr[0]); ok {
			return name
		}
	}
	return "DeviceRGB"
}

func hasFilter(filters []string, name string) bool {
	for _, f := range filters {
		if f == name {
			return true
		}
	}
	return false
}
