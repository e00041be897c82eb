package domain

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMediaType sniffs content, then falls back to the declared media type
// and finally to the file extension.
func DetectMediaType(fileName, declared string, content []byte) string {
	if len(content) > 0 {
		mt := mimetype.Detect(content)
		for m := mt; m != nil; m = m.Parent() {
			if AllowedMediaTypes[baseMediaType(m.String())] {
				return baseMediaType(m.String())
			}
		}
	}
	if d := baseMediaType(declared); AllowedMediaTypes[d] {
		return d
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if mt, ok := AllowedExtensions[ext]; ok {
		return mt
	}
	if d := baseMediaType(declared); d != "" {
		return d
	}
	return "application/octet-stream"
}

func baseMediaType(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}
