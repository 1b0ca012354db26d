package encoder

import (
	"fmt"
	"image/png"
	"path/filepath"
	"strings"
)

// Registry maps format names and file extensions to encoders.
type Registry struct {
	encoders map[string]Encoder
}

// extensionFormats maps lower-case file extensions to format names.
var extensionFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".tif":  "tiff",
	".tiff": "tiff",
	".bmp":  "bmp",
}

// NewRegistry creates a registry with every supported encoder.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
	}
	for _, enc := range []Encoder{
		&PNGEncoder{Level: png.BestCompression},
		&JPEGEncoder{},
		&TIFFEncoder{},
		&BMPEncoder{},
	} {
		r.encoders[enc.Format()] = enc
	}
	return r
}

// Get returns an encoder for the given format, or nil if unknown.
// "jpg" and "tif" are accepted as aliases.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[NormalizeFormat(format)]
}

// ForPath selects an encoder from the extension of path.
func (r *Registry) ForPath(path string) (Encoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := extensionFormats[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported output extension %q (want %s)", ext, strings.Join(r.Available(), ", "))
	}
	return r.encoders[format], nil
}

// Available returns all format names in preference order.
func (r *Registry) Available() []string {
	var result []string
	for _, f := range []string{"png", "jpeg", "tiff", "bmp"} {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	return fmt.Sprintf("encoders: %s", strings.Join(r.Available(), ", "))
}

// NormalizeFormat folds format aliases onto their canonical name.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimPrefix(format, "."))
	switch f {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return f
}
