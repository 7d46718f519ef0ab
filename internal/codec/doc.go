// Package codec converts between on-disk config syntaxes and confmap.Mapping.
//
// Three formats are supported, each behind the [Codec] interface:
//
//   - TOML via github.com/pelletier/go-toml/v2
//   - INI via gopkg.in/ini.v1
//   - YAML via gopkg.in/yaml.v3
//
// A codec is chosen once, by file extension with [ForPath] or by name with
// [ForFormat], and then reused for every read and write of that file.
//
// # Round Trips
//
// For TOML and YAML, decoding the output of Encode yields a mapping equal to
// the input. INI has no value types: every value decodes as a string, so only
// the string forms survive a round trip.
//
// # Errors
//
// Syntax errors and unrepresentable values are marked errors.ErrFormat.
// Unknown extensions and names are additionally marked
// errors.ErrUnsupportedFormat.
package codec
