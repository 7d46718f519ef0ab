package codec

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/pkg/confmap"
)

// yamlCodec works on yaml.Node trees rather than map[string]any so key order
// survives a decode/encode cycle.
type yamlCodec struct{}

func (yamlCodec) Format() Format { return FormatYAML }

func (yamlCodec) Decode(data []byte) (*confmap.Mapping, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return confmap.New(), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.MarkFormat(err, "decoding yaml")
	}
	if len(doc.Content) == 0 {
		// comments only
		return confmap.New(), nil
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return confmap.New(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.MarkFormat(
			errors.Newf("line %d: document root is not a mapping", root.Line), "decoding yaml")
	}

	m, err := yamlMapping(root)
	if err != nil {
		return nil, errors.MarkFormat(err, "decoding yaml")
	}
	return m, nil
}

func (yamlCodec) Encode(m *confmap.Mapping) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlMappingNode(m)); err != nil {
		return nil, errors.MarkFormat(err, "encoding yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.MarkFormat(err, "encoding yaml")
	}
	return buf.Bytes(), nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func yamlMapping(n *yaml.Node) (*confmap.Mapping, error) {
	m := confmap.New()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := resolveAlias(n.Content[i])
		if key.Kind != yaml.ScalarNode {
			return nil, errors.Newf("line %d: mapping key is not a scalar", key.Line)
		}
		v, err := yamlValue(n.Content[i+1])
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", key.Value)
		}
		m.Set(key.Value, v)
	}
	return m, nil
}

func yamlValue(n *yaml.Node) (confmap.Value, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		m, err := yamlMapping(n)
		if err != nil {
			return confmap.Value{}, err
		}
		return confmap.Map(m), nil
	case yaml.SequenceNode:
		items := make([]confmap.Value, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return confmap.Value{}, errors.Wrapf(err, "index %d", i)
			}
			items = append(items, v)
		}
		return confmap.List(items...), nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	default:
		return confmap.Value{}, errors.Newf("line %d: unsupported yaml node", n.Line)
	}
}

func yamlScalar(n *yaml.Node) (confmap.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return confmap.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return confmap.Value{}, err
		}
		return confmap.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return confmap.Value{}, err
		}
		return confmap.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return confmap.Value{}, err
		}
		return confmap.Float(f), nil
	default:
		// !!str, !!timestamp, !!binary and custom tags keep their text.
		return confmap.String(n.Value), nil
	}
}

func yamlMappingNode(m *confmap.Mapping) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			yamlNode(v),
		)
	}
	return n
}

func yamlNode(v confmap.Value) *yaml.Node {
	scalar := func(tag, value string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	}

	switch v.Kind() {
	case confmap.KindString:
		s, _ := v.AsString()
		return scalar("!!str", s)
	case confmap.KindInt:
		i, _ := v.AsInt()
		return scalar("!!int", strconv.FormatInt(i, 10))
	case confmap.KindFloat:
		f, _ := v.AsFloat()
		return scalar("!!float", formatYAMLFloat(f))
	case confmap.KindBool:
		b, _ := v.AsBool()
		return scalar("!!bool", strconv.FormatBool(b))
	case confmap.KindMap:
		m, _ := v.AsMap()
		return yamlMappingNode(m)
	case confmap.KindList:
		items, _ := v.AsList()
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	default:
		return scalar("!!null", "null")
	}
}

// formatYAMLFloat keeps a fractional part on whole numbers so 8.0 does not
// come back as the integer 8.
func formatYAMLFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
