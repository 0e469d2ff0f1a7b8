package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	// Registered decoders back the generic raster fallback used for preview
	// attempts on payloads that are complete image files.
	_ "image/gif"
	_ "image/jpeg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// channelCount maps a color space family to its per-pixel component count.
func channelCount(colorSpace string) int {
	switch colorSpace {
	case "DeviceGray", "CalGray":
		return 1
	case "DeviceCMYK":
		return 4
	default:
		return 3
	}
}

// reconstructPreview turns decoded raw samples into a PNG. The reason return
// is non-empty when the image must be dropped (payload shorter than the
// geometry requires); ok is false with an empty reason when the samples are
// merely unsupported and the record should stay download-only.
func reconstructPreview(data []byte, width, height, bpc int, colorSpace string) (pngBytes []byte, ok bool, reason string) {
	if width <= 0 || height <= 0 {
		return nil, false, ""
	}

	switch bpc {
	case 1:
		// Rows are padded to byte boundaries; 1 bit expands to white.
		stride := (width + 7) / 8
		if stride*height > len(data) {
			return nil, false, "payload shorter than 1-bit sample geometry"
		}
		img := expandBilevel(data, width, height, stride)
		out, err := encodePNG(img)
		if err != nil {
			return nil, false, ""
		}
		return out, true, ""

	case 8:
		channels := channelCount(colorSpace)
		expected := width * height * channels
		if expected > len(data) {
			return nil, false, "payload shorter than width*height*channels"
		}
		img := sampleImage(data[:expected], width, height, channels)
		out, err := encodePNG(img)
		if err != nil {
			return nil, false, ""
		}
		return out, true, ""

	default:
		return nil, false, ""
	}
}

// expandBilevel converts packed 1-bit samples to 8-bit grayscale.
func expandBilevel(data []byte, width, height, stride int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := data[y*stride : (y+1)*stride]
		for x := 0; x < width; x++ {
			if row[x/8]&(0x80>>(x%8)) != 0 {
				img.Pix[y*img.Stride+x] = 0xff
			}
		}
	}
	return img
}

// sampleImage wraps 8-bit samples in an image.Image for the channel count.
// CMYK goes through an approximate, preview-only conversion; it is not a
// colorimetric transform.
func sampleImage(data []byte, width, height, channels int) image.Image {
	rect := image.Rect(0, 0, width, height)
	switch channels {
	case 1:
		return &image.Gray{Pix: data, Stride: width, Rect: rect}
	case 4:
		return &cmykImage{Pix: data, Stride: width * 4, Rect: rect}
	default:
		return &rgbImage{Pix: data, Stride: width * 3, Rect: rect}
	}
}

// decodePreview attempts a generic raster decode of a complete image file
// payload and re-encodes it as PNG.
func decodePreview(data []byte) ([]byte, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	out, err := encodePNG(img)
	if err != nil {
		return nil, false
	}
	return out, true
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rgbImage exposes packed 24-bit RGB samples through the standard image
// interfaces without copying.
type rgbImage struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func (p *rgbImage) ColorModel() color.Model { return color.RGBAModel }
func (p *rgbImage) Bounds() image.Rectangle { return p.Rect }
func (p *rgbImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}

// cmykImage exposes packed CMYK samples as RGB using the naive
// (255-c)*(255-k)/255 approximation.
type cmykImage struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func (p *cmykImage) ColorModel() color.Model { return color.RGBAModel }
func (p *cmykImage) Bounds() image.Rectangle { return p.Rect }
func (p *cmykImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
	c, m, yy, k := uint32(p.Pix[i]), uint32(p.Pix[i+1]), uint32(p.Pix[i+2]), uint32(p.Pix[i+3])
	return color.RGBA{
		R: uint8((255 - c) * (255 - k) / 255),
		G: uint8((255 - m) * (255 - k) / 255),
		B: uint8((255 - yy) * (255 - k) / 255),
		A: 0xff,
	}
}
