// Package overlay composes a scaled image onto a page, either as a fresh
// one-page document or stamped directly onto the first page of an existing
// one.
package overlay

import (
	"bytes"
	"fmt"
	"image"

	// The compositor accepts any raster format the generic decoder knows.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/zach2017/pdfbundle/internal/pdf/graph"
)

// Placement names the page corner an overlay is inset from. Unknown values
// fall back to top-right, the documented default.
const (
	PlacementTopRight    = "top-right"
	PlacementTopLeft     = "top-left"
	PlacementBottomLeft  = "bottom-left"
	PlacementBottomRight = "bottom-right"
)

// Margin is the fixed corner inset in layout units.
const Margin = 18

const (
	widthFraction  = 0.30
	heightFraction = 0.35
)

// Box is a placement rectangle in page coordinates, origin bottom-left.
type Box struct {
	X, Y, W, H float64
}

// PlacementBox fits an image into a (30% width, 35% height) budget of the
// page, preserving aspect ratio width-first, and insets the result by Margin
// from the corner named by placement.
func PlacementBox(imgW, imgH int, pageW, pageH float64, placement string) (Box, error) {
	if imgW <= 0 || imgH <= 0 {
		return Box{}, fmt.Errorf("image has no area: %dx%d", imgW, imgH)
	}
	if pageW <= 0 || pageH <= 0 {
		return Box{}, fmt.Errorf("page has no area: %.2fx%.2f", pageW, pageH)
	}

	targetW := pageW * widthFraction
	scale := targetW / float64(imgW)
	targetH := float64(imgH) * scale

	if targetH > pageH*heightFraction {
		scale = pageH * heightFraction / float64(imgH)
		targetW = float64(imgW) * scale
		targetH = float64(imgH) * scale
	}

	box := Box{W: targetW, H: targetH}
	switch placement {
	case PlacementTopLeft:
		box.X, box.Y = Margin, pageH-Margin-targetH
	case PlacementBottomLeft:
		box.X, box.Y = Margin, Margin
	case PlacementBottomRight:
		box.X, box.Y = pageW-Margin-targetW, Margin
	default:
		box.X, box.Y = pageW-Margin-targetW, pageH-Margin-targetH
	}

	return box, nil
}

// ComposeOverlay renders a new single-page document of the given dimensions
// with the image drawn at its placement box.
func ComposeOverlay(imageBytes []byte, pageW, pageH float64, placement string) ([]byte, error) {
	if pageW <= 0 || pageH <= 0 {
		return nil, fmt.Errorf("page has no area: %.2fx%.2f", pageW, pageH)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(blankPagePDF(pageW, pageH)), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to seed overlay document: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to seed overlay document: %w", err)
	}

	if err := StampFirstPage(ctx, imageBytes, placement); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write overlay document: %w", err)
	}
	return buf.Bytes(), nil
}

// StampFirstPage draws the image onto the first page of an already parsed
// document, alpha-aware. It is the merge direction of ComposeOverlay: the
// image XObject joins the page's resources and the draw operation is
// appended to its content, with the original graphics state bracketed.
//
// All fallible work happens before the page is touched, so a failed stamp
// leaves the document unmodified.
func StampFirstPage(ctx *model.Context, imageBytes []byte, placement string) error {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return fmt.Errorf("failed to decode overlay image: %w", err)
	}

	w := graph.New(ctx)
	pages := w.Pages()
	if len(pages) == 0 {
		return fmt.Errorf("document has no pages to stamp")
	}
	page := pages[0]

	bounds := img.Bounds()
	box, err := PlacementBox(bounds.Dx(), bounds.Dy(), page.MediaBox.Width(), page.MediaBox.Height(), placement)
	if err != nil {
		return err
	}

	imgRef, err := addImageXObject(ctx, img)
	if err != nil {
		return err
	}

	resources, xobjects, cloned := stampResources(w, page)
	name := freshResourceName(xobjects)

	draw := fmt.Sprintf("q\n%.4f 0 0 %.4f %.4f %.4f cm\n/%s Do\nQ\n",
		box.W, box.H, page.MediaBox.LLX+box.X, page.MediaBox.LLY+box.Y, name)

	contents, err := stampContents(ctx, w, page.Dict, draw)
	if err != nil {
		return err
	}

	xobjects[name] = *imgRef
	resources["XObject"] = xobjects
	if cloned {
		page.Dict["Resources"] = resources
	}
	page.Dict["Contents"] = contents
	return nil
}

// stampResources returns the resource and XObject dictionaries the stamp will
// extend. Inherited dictionaries are shallow-copied so sibling pages sharing
// them stay untouched; cloned reports whether the copy must be written back
// onto the page.
func stampResources(w *graph.Walker, page graph.Page) (types.Dict, types.Dict, bool) {
	resources, onPage := w.DictAt(page.Dict, "Resources")
	cloned := false

	if !onPage {
		resources = types.Dict{}
		for k, v := range page.Resources {
			resources[k] = v
		}
		cloned = true
	}

	xobjects, ok := w.DictAt(resources, "XObject")
	if !ok {
		return resources, types.Dict{}, cloned
	}

	clonedXObjects := types.Dict{}
	for k, v := range xobjects {
		clonedXObjects[k] = v
	}
	return resources, clonedXObjects, cloned
}

// stampContents builds the new Contents value: the original streams bracketed
// by a state save, followed by the draw operation.
func stampContents(ctx *model.Context, w *graph.Walker, page types.Dict, draw string) (types.Array, error) {
	existing, found := page.Find("Contents")
	if !found {
		ref, err := contentStreamRef(ctx, []byte(draw))
		if err != nil {
			return nil, err
		}
		return types.Array{*ref}, nil
	}

	saveRef, err := contentStreamRef(ctx, []byte("q\n"))
	if err != nil {
		return nil, err
	}
	drawRef, err := contentStreamRef(ctx, []byte("Q\n"+draw))
	if err != nil {
		return nil, err
	}

	if arr, ok := w.Array(existing); ok {
		out := append(types.Array{*saveRef}, arr...)
		return append(out, *drawRef), nil
	}
	return types.Array{*saveRef, existing, *drawRef}, nil
}

// freshResourceName picks an XObject name not already taken on the page.
func freshResourceName(xobjects types.Dict) string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("Stamp%d", i)
		if _, taken := xobjects[name]; !taken {
			return name
		}
	}
}

func contentStreamRef(ctx *model.Context, data []byte) (*types.IndirectRef, error) {
	raw := graph.Deflate(data)
	length := int64(len(raw))

	sd := types.StreamDict{
		Dict: types.Dict{
			"Length": types.Integer(len(raw)),
			"Filter": types.Name("FlateDecode"),
		},
		Raw:            raw,
		StreamLength:   &length,
		FilterPipeline: []types.PDFFilter{{Name: "FlateDecode"}},
	}

	ref, err := ctx.IndRefForNewObject(sd)
	if err != nil {
		return nil, fmt.Errorf("failed to register content stream: %w", err)
	}
	return ref, nil
}
