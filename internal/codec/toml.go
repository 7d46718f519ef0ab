package codec

import (
	"bytes"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

// tomlCodec decodes through map[string]any, so keys come back sorted.
type tomlCodec struct{}

func (tomlCodec) Format() Format { return FormatTOML }

func (tomlCodec) Decode(data []byte) (*confmap.Mapping, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return confmap.New(), nil
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.MarkFormat(err, "decoding toml")
	}
	if raw == nil {
		return confmap.New(), nil
	}

	m, err := confmap.FromMap(normalizeTOML(raw).(map[string]any))
	if err != nil {
		return nil, errors.MarkFormat(err, "decoding toml")
	}
	return m, nil
}

func (tomlCodec) Encode(m *confmap.Mapping) ([]byte, error) {
	if key, ok := findNull(m); ok {
		return nil, errors.MarkFormat(
			errors.Newf("key %q: null cannot be represented", key), "encoding toml")
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(m.ToMap()); err != nil {
		return nil, errors.MarkFormat(err, "encoding toml")
	}
	return buf.Bytes(), nil
}

// normalizeTOML turns date and time values into their TOML text so the
// result only holds types confmap understands.
func normalizeTOML(x any) any {
	switch t := x.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = normalizeTOML(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = normalizeTOML(v)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case toml.LocalDate:
		return t.String()
	case toml.LocalTime:
		return t.String()
	case toml.LocalDateTime:
		return t.String()
	default:
		return x
	}
}

// findNull returns the dotted path of the first null value in m.
func findNull(m *confmap.Mapping) (string, bool) {
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if p, ok := nullIn(v); ok {
			if p == "" {
				return k, true
			}
			return k + p, true
		}
	}
	return "", false
}

func nullIn(v confmap.Value) (string, bool) {
	switch v.Kind() {
	case confmap.KindNull:
		return "", true
	case confmap.KindMap:
		nested, _ := v.AsMap()
		if p, ok := findNull(nested); ok {
			return "." + p, true
		}
	case confmap.KindList:
		items, _ := v.AsList()
		for _, item := range items {
			if p, ok := nullIn(item); ok {
				return "[]" + p, true
			}
		}
	}
	return "", false
}
