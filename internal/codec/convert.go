package codec

import (
	"github.com/thoreinstein/confkeep/internal/errors"
)

// Convert decodes data in one format and re-encodes it in another.
// Converting to INI fails for nesting deeper than one section level;
// converting from INI yields string values only.
func Convert(data []byte, from, to Format) ([]byte, error) {
	src, err := ForFormat(string(from))
	if err != nil {
		return nil, err
	}
	dst, err := ForFormat(string(to))
	if err != nil {
		return nil, err
	}

	m, err := src.Decode(data)
	if err != nil {
		return nil, err
	}
	out, err := dst.Encode(m)
	if err != nil {
		return nil, errors.Wrapf(err, "converting %s to %s", from, to)
	}
	return out, nil
}
