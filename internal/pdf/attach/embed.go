package attach

import (
	"encoding/hex"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/zach2017/pdfbundle/internal/pdf/graph"
)

// Embed attaches data under filename by appending a file specification to the
// document's EmbeddedFiles name table, creating the Names/EmbeddedFiles
// dictionaries when the document has none. The attachment becomes visible to
// Extract on the rewritten document.
func Embed(ctx *model.Context, filename string, data []byte) error {
	if filename == "" {
		filename = fallbackName
	}

	raw := graph.Deflate(data)
	streamLength := int64(len(raw))

	sd := types.StreamDict{
		Dict: types.Dict{
			"Type":   types.Name("EmbeddedFile"),
			"Filter": types.Name("FlateDecode"),
			"Length": types.Integer(len(raw)),
			"Params": types.Dict{"Size": types.Integer(len(data))},
		},
		Raw:            raw,
		StreamLength:   &streamLength,
		FilterPipeline: []types.PDFFilter{{Name: "FlateDecode"}},
	}

	efRef, err := ctx.IndRefForNewObject(sd)
	if err != nil {
		return fmt.Errorf("failed to register embedded file stream: %w", err)
	}

	filespec := types.Dict{
		"Type": types.Name("Filespec"),
		"F":    pdfString(filename),
		"UF":   pdfString(filename),
		"EF":   types.Dict{"F": *efRef, "UF": *efRef},
	}

	fsRef, err := ctx.IndRefForNewObject(filespec)
	if err != nil {
		return fmt.Errorf("failed to register file specification: %w", err)
	}

	catalog, err := ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to resolve document catalog: %w", err)
	}

	w := graph.New(ctx)

	namesDict, ok := w.DictAt(catalog, "Names")
	if !ok {
		namesDict = types.Dict{}
		catalog["Names"] = namesDict
	}

	efDict, ok := w.DictAt(namesDict, "EmbeddedFiles")
	if !ok {
		efDict = types.Dict{}
		namesDict["EmbeddedFiles"] = efDict
	}

	entries, _ := w.ArrayAt(efDict, "Names")
	entries = append(entries, pdfString(filename), *fsRef)
	efDict["Names"] = entries

	return nil
}

// pdfString encodes a Go string as a hex string object, sidestepping the
// escaping rules of literal strings.
func pdfString(s string) types.HexLiteral {
	return types.HexLiteral(hex.EncodeToString([]byte(s)))
}
