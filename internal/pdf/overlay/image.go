package overlay

import (
	"fmt"
	"image"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/zach2017/pdfbundle/internal/pdf/graph"
)

// addImageXObject registers the decoded image as an 8-bit RGB image XObject.
// A non-opaque image additionally gets a grayscale SMask built from its alpha
// channel, so transparency survives compositing.
func addImageXObject(ctx *model.Context, img image.Image) (*types.IndirectRef, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rgb := make([]byte, 0, w*h*3)
	alpha := make([]byte, 0, w*h)
	opaque := true

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a > 0 && a < 0xffff {
				// Premultiplied samples are scaled back to straight color.
				r = r * 0xffff / a
				g = g * 0xffff / a
				b = b * 0xffff / a
			}
			rgb = append(rgb, byte(r>>8), byte(g>>8), byte(b>>8))
			alpha = append(alpha, byte(a>>8))
			if a>>8 != 0xff {
				opaque = false
			}
		}
	}

	dict := types.Dict{
		"Type":             types.Name("XObject"),
		"Subtype":          types.Name("Image"),
		"Width":            types.Integer(w),
		"Height":           types.Integer(h),
		"ColorSpace":       types.Name("DeviceRGB"),
		"BitsPerComponent": types.Integer(8),
	}

	if !opaque {
		maskRef, err := addSoftMask(ctx, alpha, w, h)
		if err != nil {
			return nil, err
		}
		dict["SMask"] = *maskRef
	}

	return imageStreamRef(ctx, dict, rgb)
}

func addSoftMask(ctx *model.Context, alpha []byte, w, h int) (*types.IndirectRef, error) {
	dict := types.Dict{
		"Type":             types.Name("XObject"),
		"Subtype":          types.Name("Image"),
		"Width":            types.Integer(w),
		"Height":           types.Integer(h),
		"ColorSpace":       types.Name("DeviceGray"),
		"BitsPerComponent": types.Integer(8),
	}
	return imageStreamRef(ctx, dict, alpha)
}

func imageStreamRef(ctx *model.Context, dict types.Dict, samples []byte) (*types.IndirectRef, error) {
	raw := graph.Deflate(samples)
	length := int64(len(raw))

	dict["Filter"] = types.Name("FlateDecode")
	dict["Length"] = types.Integer(len(raw))

	sd := types.StreamDict{
		Dict:           dict,
		Raw:            raw,
		StreamLength:   &length,
		FilterPipeline: []types.PDFFilter{{Name: "FlateDecode"}},
	}

	ref, err := ctx.IndRefForNewObject(sd)
	if err != nil {
		return nil, fmt.Errorf("failed to register image stream: %w", err)
	}
	return ref, nil
}
