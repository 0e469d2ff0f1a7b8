package pdf

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/zach2017/pdfbundle/internal/pdf/graph"
)

// documentMetadata flattens the Info dictionary into string form. Entries
// that resolve to neither a string nor a name are left out; a document
// without an Info dictionary yields an empty map.
func documentMetadata(ctx *model.Context) map[string]string {
	metadata := map[string]string{}

	if ctx.Info == nil {
		return metadata
	}

	w := graph.New(ctx)
	info, ok := w.Dict(*ctx.Info)
	if !ok {
		return metadata
	}

	for key, obj := range info {
		if s, ok := w.Text(obj); ok {
			metadata[key] = s
			continue
		}
		if name, ok := w.Name(obj); ok {
			metadata[key] = name
		}
	}

	return metadata
}
