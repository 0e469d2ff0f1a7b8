package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/zach2017/pdfbundle/internal/pdf/graph"
	"github.com/zach2017/pdfbundle/internal/pdf/overlay"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 10, G: 200, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// stampedContext parses a composed one-page document carrying one image
// XObject under the resource name Stamp0.
func stampedContext(t *testing.T, imgW, imgH int) *model.Context {
	t.Helper()

	doc, err := overlay.ComposeOverlay(testPNG(t, imgW, imgH), 612, 792, "")
	if err != nil {
		t.Fatalf("failed to compose document: %v", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(doc), conf)
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		t.Fatalf("failed to count pages: %v", err)
	}
	return ctx
}

func TestExtract(t *testing.T) {
	ctx := stampedContext(t, 12, 9)

	records, skipped := Extract(ctx, 0)
	if len(skipped) != 0 {
		t.Errorf("unexpected skips: %v", skipped)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.ID != "p1_1_Stamp0" {
		t.Errorf("record id = %q, want p1_1_Stamp0", rec.ID)
	}
	if rec.Page != 1 {
		t.Errorf("record page = %d, want 1", rec.Page)
	}
	if rec.Width != 12 || rec.Height != 9 {
		t.Errorf("record geometry = %dx%d, want 12x9", rec.Width, rec.Height)
	}
	if rec.BitsPerComponent != 8 || rec.ColorSpace != "DeviceRGB" {
		t.Errorf("record samples = %d bpc %s, want 8 bpc DeviceRGB", rec.BitsPerComponent, rec.ColorSpace)
	}

	// A flate-encoded raw-sample image has no native browser encoding, so
	// the canonical payload is promoted to the reconstructed PNG.
	if rec.MIMEType != "image/png" {
		t.Errorf("record mime = %q, want image/png", rec.MIMEType)
	}
	if rec.Name != "p1_1_Stamp0.png" {
		t.Errorf("record name = %q, want p1_1_Stamp0.png", rec.Name)
	}
	if !rec.HasPreview() {
		t.Fatal("reconstructed image should have a preview")
	}
	if !bytes.Equal(rec.Data, rec.PreviewData) {
		t.Error("promoted payload should equal the preview payload")
	}

	decoded, _, err := image.Decode(bytes.NewReader(rec.PreviewData))
	if err != nil {
		t.Fatalf("preview is not decodable: %v", err)
	}
	if decoded.Bounds().Dx() != 12 || decoded.Bounds().Dy() != 9 {
		t.Errorf("preview geometry = %v, want 12x9", decoded.Bounds())
	}
}

func TestExtractHonorsLimit(t *testing.T) {
	ctx := stampedContext(t, 6, 6)

	// A second stamp adds a second image XObject to the same page.
	if err := overlay.StampFirstPage(ctx, testPNG(t, 5, 5), overlay.PlacementBottomLeft); err != nil {
		t.Fatalf("failed to add second stamp: %v", err)
	}

	records, _ := Extract(ctx, 0)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "p1_1_Stamp0" || records[1].ID != "p1_2_Stamp1" {
		t.Errorf("record ids = %q, %q", records[0].ID, records[1].ID)
	}

	limited, _ := Extract(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d records", len(limited))
	}
}

func TestClassifyDropsShortPayload(t *testing.T) {
	ctx := stampedContext(t, 4, 4)
	w := graph.New(ctx)

	// Declared geometry requires 100*100*3 bytes; the payload holds 12.
	raw := graph.Deflate([]byte("far too short"))
	sd := types.StreamDict{
		Dict: types.Dict{
			"Subtype":          types.Name("Image"),
			"Width":            types.Integer(100),
			"Height":           types.Integer(100),
			"BitsPerComponent": types.Integer(8),
			"ColorSpace":       types.Name("DeviceRGB"),
			"Filter":           types.Name("FlateDecode"),
		},
		Raw: raw,
	}

	rec, skip := classify(w, sd, 1, 1, "Short")
	if rec != nil {
		t.Fatalf("short payload should not produce a record, got %+v", rec)
	}
	if skip == nil || skip.Reason == "" {
		t.Fatal("short payload should be reported with a reason")
	}
}

func TestClassifyJPEG(t *testing.T) {
	ctx := stampedContext(t, 4, 4)
	w := graph.New(ctx)

	jpegBytes := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	sd := types.StreamDict{
		Dict: types.Dict{
			"Subtype":          types.Name("Image"),
			"Width":            types.Integer(2),
			"Height":           types.Integer(2),
			"BitsPerComponent": types.Integer(8),
			"Filter":           types.Name("DCTDecode"),
		},
		Raw: jpegBytes,
	}

	rec, skip := classify(w, sd, 3, 2, "Photo")
	if skip != nil {
		t.Fatalf("JPEG payload should classify, got skip %+v", skip)
	}
	if rec.ID != "p3_2_Photo" {
		t.Errorf("record id = %q, want p3_2_Photo", rec.ID)
	}
	if rec.MIMEType != "image/jpeg" || rec.Name != "p3_2_Photo.jpg" {
		t.Errorf("record mime/name = %q/%q, want image/jpeg/p3_2_Photo.jpg", rec.MIMEType, rec.Name)
	}
	// DCT payloads are browser-safe as delivered; the preview is identical.
	if !bytes.Equal(rec.PreviewData, jpegBytes) || rec.PreviewMIMEType != "image/jpeg" {
		t.Error("JPEG preview should be the payload itself")
	}
}

func TestChannelCount(t *testing.T) {
	tests := []struct {
		colorSpace string
		want       int
	}{
		{"DeviceGray", 1},
		{"CalGray", 1},
		{"DeviceRGB", 3},
		{"CalRGB", 3},
		{"ICCBased", 3},
		{"DeviceCMYK", 4},
	}
	for _, tt := range tests {
		if got := channelCount(tt.colorSpace); got != tt.want {
			t.Errorf("channelCount(%s) = %d, want %d", tt.colorSpace, got, tt.want)
		}
	}
}

func TestReconstructPreview(t *testing.T) {
	t.Run("8-bit gray", func(t *testing.T) {
		data := make([]byte, 3*2)
		out, ok, reason := reconstructPreview(data, 3, 2, 8, "DeviceGray")
		if !ok || reason != "" {
			t.Fatalf("reconstruction failed: ok=%v reason=%q", ok, reason)
		}
		assertPNGSize(t, out, 3, 2)
	})

	t.Run("8-bit rgb", func(t *testing.T) {
		data := make([]byte, 4*4*3)
		out, ok, reason := reconstructPreview(data, 4, 4, 8, "DeviceRGB")
		if !ok || reason != "" {
			t.Fatalf("reconstruction failed: ok=%v reason=%q", ok, reason)
		}
		assertPNGSize(t, out, 4, 4)
	})

	t.Run("8-bit cmyk", func(t *testing.T) {
		data := make([]byte, 2*2*4)
		out, ok, reason := reconstructPreview(data, 2, 2, 8, "DeviceCMYK")
		if !ok || reason != "" {
			t.Fatalf("reconstruction failed: ok=%v reason=%q", ok, reason)
		}
		assertPNGSize(t, out, 2, 2)
	})

	t.Run("1-bit expands to gray", func(t *testing.T) {
		// 10x2 bilevel: rows pad to 2 bytes. First pixel set, rest clear.
		data := []byte{0x80, 0x00, 0x00, 0x00}
		out, ok, reason := reconstructPreview(data, 10, 2, 1, "DeviceGray")
		if !ok || reason != "" {
			t.Fatalf("reconstruction failed: ok=%v reason=%q", ok, reason)
		}

		img, err := png.Decode(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("preview is not a PNG: %v", err)
		}
		if r, _, _, _ := img.At(0, 0).RGBA(); r != 0xffff {
			t.Error("set bit should render white")
		}
		if r, _, _, _ := img.At(1, 0).RGBA(); r != 0 {
			t.Error("clear bit should render black")
		}
	})

	t.Run("short payload is dropped with reason", func(t *testing.T) {
		_, ok, reason := reconstructPreview(make([]byte, 5), 10, 10, 8, "DeviceRGB")
		if ok || reason == "" {
			t.Errorf("short payload: ok=%v reason=%q, want drop with reason", ok, reason)
		}

		_, ok, reason = reconstructPreview(nil, 16, 16, 1, "DeviceGray")
		if ok || reason == "" {
			t.Errorf("short bilevel payload: ok=%v reason=%q, want drop with reason", ok, reason)
		}
	})

	t.Run("unsupported depth stays download-only", func(t *testing.T) {
		_, ok, reason := reconstructPreview(make([]byte, 1024), 4, 4, 16, "DeviceRGB")
		if ok || reason != "" {
			t.Errorf("16 bpc: ok=%v reason=%q, want unsupported without drop", ok, reason)
		}
	})

	t.Run("degenerate geometry", func(t *testing.T) {
		_, ok, reason := reconstructPreview(make([]byte, 16), 0, 4, 8, "DeviceGray")
		if ok || reason != "" {
			t.Errorf("zero width: ok=%v reason=%q", ok, reason)
		}
	})
}

func TestDecodePreview(t *testing.T) {
	out, ok := decodePreview(testPNG(t, 5, 7))
	if !ok {
		t.Fatal("complete PNG payload should decode")
	}
	assertPNGSize(t, out, 5, 7)

	if _, ok := decodePreview([]byte("not an image")); ok {
		t.Error("garbage payload should not decode")
	}
}

func TestExifTags(t *testing.T) {
	// PNGs carry no EXIF; the result is empty, never an error.
	tags := ExifTags(testPNG(t, 4, 4))
	if len(tags) != 0 {
		t.Errorf("expected no EXIF tags in PNG, got %v", tags)
	}

	if tags := ExifTags([]byte("junk")); len(tags) != 0 {
		t.Errorf("expected no EXIF tags in garbage, got %v", tags)
	}
}

func assertPNGSize(t *testing.T, data []byte, w, h int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Errorf("PNG geometry = %v, want %dx%d", img.Bounds(), w, h)
	}
}
