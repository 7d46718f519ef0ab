package codec

import (
	"bytes"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

// iniCodec maps the default section to top-level keys and every named
// section to a nested mapping. INI has no types, so all values decode as
// strings; that lossiness is owned here.
type iniCodec struct{}

func (iniCodec) Format() Format { return FormatINI }

func (iniCodec) Decode(data []byte) (*confmap.Mapping, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return confmap.New(), nil
	}

	f, err := ini.LoadSources(ini.LoadOptions{}, data)
	if err != nil {
		return nil, errors.MarkFormat(err, "decoding ini")
	}

	m := confmap.New()
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			for _, key := range sec.Keys() {
				m.Set(key.Name(), confmap.String(key.Value()))
			}
			continue
		}
		nested := confmap.New()
		for _, key := range sec.Keys() {
			nested.Set(key.Name(), confmap.String(key.Value()))
		}
		m.Set(sec.Name(), confmap.Map(nested))
	}
	return m, nil
}

func (iniCodec) Encode(m *confmap.Mapping) ([]byte, error) {
	f := ini.Empty()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)

		if nested, ok := v.AsMap(); ok {
			sec, err := f.NewSection(k)
			if err != nil {
				return nil, errors.MarkFormat(err, "encoding ini")
			}
			for _, ik := range nested.Keys() {
				iv, _ := nested.Get(ik)
				s, err := iniScalar(iv)
				if err != nil {
					return nil, errors.MarkFormat(errors.Wrapf(err, "key %q", k+"."+ik), "encoding ini")
				}
				if _, err := sec.NewKey(ik, s); err != nil {
					return nil, errors.MarkFormat(err, "encoding ini")
				}
			}
			continue
		}

		s, err := iniScalar(v)
		if err != nil {
			return nil, errors.MarkFormat(errors.Wrapf(err, "key %q", k), "encoding ini")
		}
		if _, err := f.Section(ini.DefaultSection).NewKey(k, s); err != nil {
			return nil, errors.MarkFormat(err, "encoding ini")
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, errors.MarkFormat(err, "encoding ini")
	}
	return buf.Bytes(), nil
}

// iniScalar stringifies a value that fits on one INI line.
func iniScalar(v confmap.Value) (string, error) {
	switch v.Kind() {
	case confmap.KindString:
		s, _ := v.AsString()
		return s, nil
	case confmap.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10), nil
	case confmap.KindFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case confmap.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b), nil
	case confmap.KindNull:
		return "", nil
	default:
		return "", errors.Newf("%s values cannot be represented in ini", v.Kind())
	}
}
