package attach

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

// extractFallback walks the embedded-files name table through the
// ledongthuc/pdf value graph. It is a second, independent surface over the
// same structure, used when the primary walk comes up empty: the two readers
// repair different classes of damage, so a table one of them cannot resolve
// is sometimes readable through the other.
//
// The underlying reader panics on some malformed structures, so the whole
// walk runs under a recover and degrades to "no attachments".
func extractFallback(raw []byte) (attachments map[string][]byte) {
	attachments = map[string][]byte{}

	defer func() {
		if recover() != nil {
			attachments = map[string][]byte{}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return attachments
	}

	names := r.Trailer().Key("Root").Key("Names").Key("EmbeddedFiles").Key("Names")
	if names.Kind() != pdf.Array {
		return attachments
	}

	for i := 0; i+1 < names.Len(); i += 2 {
		name := names.Index(i).Text()
		if name == "" {
			name = fallbackName
		}

		ef := names.Index(i + 1).Key("EF")
		for _, key := range variantKeys {
			st := ef.Key(key)
			if st.Kind() != pdf.Stream {
				continue
			}
			if data, ok := readStream(st); ok {
				attachments[name] = data
				break
			}
		}
	}

	return attachments
}

func readStream(v pdf.Value) (data []byte, ok bool) {
	defer func() {
		if recover() != nil {
			data, ok = nil, false
		}
	}()

	rc := v.Reader()
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return data, true
}
