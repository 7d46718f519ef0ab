package codec

import (
	"path/filepath"
	"strings"

	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

// Format names an on-disk config syntax.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatINI  Format = "ini"
	FormatYAML Format = "yaml"
)

// Codec decodes and encodes a mapping in one on-disk syntax.
type Codec interface {
	// Format returns the syntax handled by the codec.
	Format() Format
	// Decode parses data. Empty input yields an empty mapping.
	Decode(data []byte) (*confmap.Mapping, error)
	// Encode renders m, failing with ErrFormat for values the syntax
	// cannot represent.
	Encode(m *confmap.Mapping) ([]byte, error)
}

var codecs = map[Format]Codec{
	FormatTOML: tomlCodec{},
	FormatINI:  iniCodec{},
	FormatYAML: yamlCodec{},
}

// extensions maps lowercase file extensions to formats.
var extensions = map[string]Format{
	".toml": FormatTOML,
	".ini":  FormatINI,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
}

// Formats returns all supported formats.
func Formats() []Format {
	return []Format{FormatTOML, FormatINI, FormatYAML}
}

// ForFormat returns the codec for a format name such as "toml" or "yml".
func ForFormat(name string) (Codec, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(name, ".")))
	if f == "yml" {
		f = FormatYAML
	}
	c, ok := codecs[f]
	if !ok {
		return nil, unsupported(name)
	}
	return c, nil
}

// ForPath returns the codec matching the extension of path.
func ForPath(path string) (Codec, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	return codecs[f], nil
}

// DetectFormat maps the extension of path to a format.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensions[ext]
	if !ok {
		return "", unsupported(filepath.Base(path))
	}
	return f, nil
}

func unsupported(what string) error {
	err := errors.Newf("unsupported config file type: %q", what)
	return errors.Mark(errors.Mark(err, errors.ErrUnsupportedFormat), errors.ErrFormat)
}
