// Package confmap defines the in-memory representation shared by every
// config format: an ordered [Mapping] of string keys to [Value]s.
//
// A Value is a closed tagged union over null, string, integer, float,
// boolean, nested mapping and list. Validation compares values by [Kind],
// so the set of kinds is fixed and switch statements over it are exhaustive.
//
//	m := confmap.New()
//	m.Set("port", confmap.Int(8080))
//	m.Set("debug", confmap.Bool(false))
//
//	v, ok := m.Get("port")
//	if n, isInt := v.AsInt(); ok && isInt {
//	    fmt.Println(n)
//	}
//
// Mappings preserve insertion order so that validation findings and encoded
// files come out in a stable order. [Mapping.Equal] ignores order.
package confmap
