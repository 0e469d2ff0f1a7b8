// Package graph provides tolerant accessors over the pdfcpu object model.
//
// Source documents are untrusted: required dictionary entries may be missing,
// indirect references may dangle, and intermediate nodes may have the wrong
// type. Every accessor in this package reports absence and malformation the
// same way, through an ok-bool, and never panics or returns an error from a
// lookup.
package graph

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Image filters produce encoded payloads (JPEG, JPEG2000, fax, JBIG2) that
// are passed through untouched rather than decoded.
var imageFilters = map[string]bool{
	"DCTDecode":      true,
	"JPXDecode":      true,
	"CCITTFaxDecode": true,
	"JBIG2Decode":    true,
}

// Walker descends through the object graph of a parsed document.
type Walker struct {
	ctx *model.Context
}

// New returns a walker bound to a parsed document context.
func New(ctx *model.Context) *Walker {
	return &Walker{ctx: ctx}
}

// LookupChain looks up each key in order, dereferencing intermediate values
// and requiring every step but the last to resolve to a dictionary. A missing
// key, a dangling reference, or a non-dictionary intermediate all yield false.
func (w *Walker) LookupChain(d types.Dict, keys ...string) (types.Object, bool) {
	if d == nil || len(keys) == 0 {
		return nil, false
	}

	cur := d
	for i, key := range keys {
		obj, found := cur.Find(key)
		if !found {
			return nil, false
		}
		if i == len(keys)-1 {
			return obj, true
		}
		next, ok := w.Dict(obj)
		if !ok {
			return nil, false
		}
		cur = next
	}

	return nil, false
}

// DictAt resolves a chain of keys to a dictionary.
func (w *Walker) DictAt(d types.Dict, keys ...string) (types.Dict, bool) {
	obj, ok := w.LookupChain(d, keys...)
	if !ok {
		return nil, false
	}
	return w.Dict(obj)
}

// ArrayAt resolves a chain of keys to an array.
func (w *Walker) ArrayAt(d types.Dict, keys ...string) (types.Array, bool) {
	obj, ok := w.LookupChain(d, keys...)
	if !ok {
		return nil, false
	}
	return w.Array(obj)
}

// Dict dereferences an object to a dictionary. A stream dictionary also
// qualifies, since its entries are looked up the same way.
func (w *Walker) Dict(obj types.Object) (types.Dict, bool) {
	resolved, err := w.ctx.Dereference(obj)
	if err != nil || resolved == nil {
		return nil, false
	}
	switch v := resolved.(type) {
	case types.Dict:
		return v, true
	case types.StreamDict:
		return v.Dict, true
	default:
		return nil, false
	}
}

// Array dereferences an object to an array.
func (w *Walker) Array(obj types.Object) (types.Array, bool) {
	resolved, err := w.ctx.Dereference(obj)
	if err != nil || resolved == nil {
		return nil, false
	}
	arr, ok := resolved.(types.Array)
	return arr, ok
}

// StreamDict dereferences an object to a stream dictionary.
func (w *Walker) StreamDict(obj types.Object) (types.StreamDict, bool) {
	resolved, err := w.ctx.Dereference(obj)
	if err != nil || resolved == nil {
		return types.StreamDict{}, false
	}
	sd, ok := resolved.(types.StreamDict)
	return sd, ok
}

// Name dereferences an object to a name, without the leading slash.
func (w *Walker) Name(obj types.Object) (string, bool) {
	name, err := w.ctx.DereferenceName(obj, model.V10, nil)
	if err != nil || name == "" {
		return "", false
	}
	return string(name), true
}

// Int dereferences an object to an integer.
func (w *Walker) Int(obj types.Object) (int, bool) {
	i, err := w.ctx.DereferenceInteger(obj)
	if err != nil || i == nil {
		return 0, false
	}
	return int(*i), true
}

// Number dereferences an object to a float, accepting integers as well.
func (w *Walker) Number(obj types.Object) (float64, bool) {
	f, err := w.ctx.DereferenceNumber(obj)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Text dereferences an object to a display string, decoding literal and hex
// string forms.
func (w *Walker) Text(obj types.Object) (string, bool) {
	s, err := w.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return "", false
	}
	return s, true
}

// FilterChain returns the ordered filter names applied to a stream, from the
// stream dictionary's Filter entry. An absent entry yields an empty chain.
func (w *Walker) FilterChain(sd types.StreamDict) []string {
	obj, found := sd.Dict.Find("Filter")
	if !found {
		return nil
	}

	if name, ok := w.Name(obj); ok {
		return []string{name}
	}

	arr, ok := w.Array(obj)
	if !ok {
		return nil
	}
	var chain []string
	for _, item := range arr {
		if name, ok := w.Name(item); ok {
			chain = append(chain, name)
		}
	}
	return chain
}

// ResolveStream returns a stream's payload with any leading FlateDecode
// layers removed. Decoding stops at the first image filter, whose bytes are
// delivered as-is. A filter this walker cannot undo (LZW, run-length, a
// predictor it does not implement) yields false.
func (w *Walker) ResolveStream(sd types.StreamDict) ([]byte, bool) {
	data := sd.Raw

	for i, name := range w.FilterChain(sd) {
		if imageFilters[name] {
			return data, true
		}
		if name != "FlateDecode" {
			return nil, false
		}
		if w.flatePredictor(sd, i) > 1 {
			return nil, false
		}
		inflated, err := inflate(data)
		if err != nil {
			return nil, false
		}
		data = inflated
	}

	return data, true
}

// flatePredictor returns the Predictor value of the i-th filter's decode
// parameters, or 0 when none is declared.
func (w *Walker) flatePredictor(sd types.StreamDict, i int) int {
	obj, found := sd.Dict.Find("DecodeParms")
	if !found {
		return 0
	}

	var parms types.Dict
	if arr, ok := w.Array(obj); ok {
		if i >= len(arr) {
			return 0
		}
		parms, ok = w.Dict(arr[i])
		if !ok {
			return 0
		}
	} else if d, ok := w.Dict(obj); ok {
		parms = d
	} else {
		return 0
	}

	if p, ok := w.Int(parms["Predictor"]); ok {
		return p
	}
	return 0
}

// Deflate compresses a payload for storage under a FlateDecode filter.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}

// inflate decompresses a FlateDecode payload. Some producers omit the zlib
// header, so a raw deflate read is attempted before giving up.
func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err == nil {
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err == nil {
			return out, nil
		}
	}

	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	return io.ReadAll(fr)
}
