// Package attach reads and writes embedded file attachments.
package attach

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/zach2017/pdfbundle/internal/pdf/graph"
)

// fallbackName labels an entry whose name could not be resolved to a string.
const fallbackName = "attachment.bin"

// variantKeys is the priority order for the stream variants of a file
// specification. The first key with a readable stream wins.
var variantKeys = []string{"F", "UF", "DOS", "Mac", "Unix"}

// Skipped records one name-table entry that could not be decoded. Entries are
// reported rather than silently dropped so callers can observe partial
// extractions.
type Skipped struct {
	Index  int    // pair index within the Names array
	Name   string // best-effort entry name, may be empty
	Reason string
}

// Extract walks Root -> Names -> EmbeddedFiles -> Names and decodes each
// (name, file specification) pair into a filename -> bytes mapping. A single
// malformed entry is skipped and reported; the walk itself never fails.
//
// Only the flat top-level Names array is consumed. Balanced name trees that
// push entries below intermediate Kids nodes are not descended into, so
// attachments stored that way are missed.
func Extract(ctx *model.Context) (map[string][]byte, []Skipped) {
	attachments := map[string][]byte{}
	var skipped []Skipped

	w := graph.New(ctx)
	catalog, err := ctx.Catalog()
	if err != nil {
		return attachments, skipped
	}

	names, ok := w.ArrayAt(catalog, "Names", "EmbeddedFiles", "Names")
	if !ok {
		return attachments, skipped
	}

	for i := 0; i+1 < len(names); i += 2 {
		pair := i / 2

		name, ok := w.Text(names[i])
		if !ok || name == "" {
			name = fallbackName
		}

		filespec, ok := w.Dict(names[i+1])
		if !ok {
			skipped = append(skipped, Skipped{Index: pair, Name: name, Reason: "file specification is not a dictionary"})
			continue
		}

		ef, ok := w.DictAt(filespec, "EF")
		if !ok {
			skipped = append(skipped, Skipped{Index: pair, Name: name, Reason: "file specification has no EF dictionary"})
			continue
		}

		data, ok := firstVariantStream(w, ef)
		if !ok {
			skipped = append(skipped, Skipped{Index: pair, Name: name, Reason: "no readable embedded stream variant"})
			continue
		}

		attachments[name] = data
	}

	return attachments, skipped
}

// ExtractWithFallback runs Extract and, when the name-table walk yields
// nothing (table absent, malformed, or empty), retries through an independent
// reader surface over the raw document bytes.
func ExtractWithFallback(ctx *model.Context, raw []byte) (map[string][]byte, []Skipped) {
	attachments, skipped := Extract(ctx)
	if len(attachments) > 0 {
		return attachments, skipped
	}
	if fb := extractFallback(raw); len(fb) > 0 {
		return fb, skipped
	}
	return attachments, skipped
}

// firstVariantStream tries the variant keys in priority order and returns the
// decoded bytes of the first stream that resolves.
func firstVariantStream(w *graph.Walker, ef types.Dict) ([]byte, bool) {
	for _, key := range variantKeys {
		obj, found := ef.Find(key)
		if !found {
			continue
		}
		sd, ok := w.StreamDict(obj)
		if !ok {
			continue
		}
		if data, ok := w.ResolveStream(sd); ok {
			return data, true
		}
	}
	return nil, false
}
