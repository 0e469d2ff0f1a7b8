package graph

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// maxTreeDepth bounds page tree recursion so a cyclic Kids structure in a
// hostile document cannot hang the walk.
const maxTreeDepth = 64

// MediaBox is a page rectangle in default user space units.
type MediaBox struct {
	LLX, LLY, URX, URY float64
}

// Width returns the horizontal extent of the box.
func (m MediaBox) Width() float64 { return m.URX - m.LLX }

// Height returns the vertical extent of the box.
func (m MediaBox) Height() float64 { return m.URY - m.LLY }

// Page is one leaf of the page tree with its inheritable attributes already
// resolved.
type Page struct {
	Number    int // 1-based
	Dict      types.Dict
	Resources types.Dict // nil when neither the page nor an ancestor has one
	MediaBox  MediaBox
}

// Pages walks the page tree in document order, resolving inherited Resources
// and MediaBox entries. Malformed nodes are skipped; a document without a
// usable page tree yields an empty slice.
func (w *Walker) Pages() []Page {
	catalog, err := w.ctx.Catalog()
	if err != nil {
		return nil
	}

	root, ok := w.DictAt(catalog, "Pages")
	if !ok {
		return nil
	}

	var pages []Page
	w.walkPageNode(root, nil, MediaBox{URX: 612, URY: 792}, 0, &pages)
	return pages
}

func (w *Walker) walkPageNode(node types.Dict, res types.Dict, mb MediaBox, depth int, pages *[]Page) {
	if depth > maxTreeDepth {
		return
	}

	if d, ok := w.DictAt(node, "Resources"); ok {
		res = d
	}
	if box, ok := w.mediaBox(node); ok {
		mb = box
	}

	typ, _ := w.Name(node["Type"])
	if typ == "Page" {
		*pages = append(*pages, Page{
			Number:    len(*pages) + 1,
			Dict:      node,
			Resources: res,
			MediaBox:  mb,
		})
		return
	}

	kids, ok := w.ArrayAt(node, "Kids")
	if !ok {
		return
	}
	for _, kid := range kids {
		child, ok := w.Dict(kid)
		if !ok {
			continue
		}
		w.walkPageNode(child, res, mb, depth+1, pages)
	}
}

func (w *Walker) mediaBox(node types.Dict) (MediaBox, bool) {
	arr, ok := w.ArrayAt(node, "MediaBox")
	if !ok || len(arr) != 4 {
		return MediaBox{}, false
	}

	var vals [4]float64
	for i, obj := range arr {
		f, ok := w.Number(obj)
		if !ok {
			return MediaBox{}, false
		}
		vals[i] = f
	}
	return MediaBox{LLX: vals[0], LLY: vals[1], URX: vals[2], URY: vals[3]}, true
}
