// Package params reads structured parameter files (JSON, YAML, TOML) and extracts the value at a
// dotted key path, the mechanism pipeline steps use to depend on a single entry inside a larger
// parameters file rather than the whole file's digest.
package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names a supported parameter-file serialization.
type Format int

const (
	JSON Format = iota
	YAML
	TOML
)

// DetectFormat infers a Format from path's extension, defaulting to YAML for unrecognized or
// missing extensions since that is the format xvc's own default parameters file uses.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".toml":
		return TOML
	default:
		return YAML
	}
}

// ReadFile parses path as a nested document, using DetectFormat to pick the decoder.
func ReadFile(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params: read %s: %w", path, err)
	}
	return Parse(content, DetectFormat(path))
}

// Parse decodes content as format into a nested document.
func Parse(content []byte, format Format) (map[string]any, error) {
	doc := map[string]any{}
	var err error
	switch format {
	case JSON:
		err = json.Unmarshal(content, &doc)
	case TOML:
		err = toml.Unmarshal(content, &doc)
	default:
		err = yaml.Unmarshal(content, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("params: parse: %w", err)
	}
	return doc, nil
}

// Lookup resolves a dot-separated key path (e.g. "model.lr") against doc, descending through
// nested maps at each segment. It reports false if any segment is missing or not a map.
func Lookup(doc map[string]any, keyPath string) (any, bool) {
	segments := strings.Split(keyPath, ".")
	var cur any = doc
	for _, seg := range segments {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		val, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = val
	}
	return cur, true
}

// asMap normalizes the map shapes the three decoders produce (map[string]any from json/toml,
// map[string]interface{} likewise from yaml.v3 when unmarshaled into `any`) into a single type.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// Value resolves keyPath within the parameter file at path and renders it as a string, the form
// a dependency digest is computed over.
func Value(path, keyPath string) (string, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return "", err
	}
	val, ok := Lookup(doc, keyPath)
	if !ok {
		return "", fmt.Errorf("params: key %q not found in %s", keyPath, path)
	}
	return stringify(val), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
