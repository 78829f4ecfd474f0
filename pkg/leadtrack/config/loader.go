package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// formats maps a config file format to its decoder. JSON files are decoded
// with encoding/json so numbers and errors follow JSON rules.
var formats = map[string]func([]byte, any) error{
	"yaml": yaml.Unmarshal,
	"yml":  yaml.Unmarshal,
	"json": json.Unmarshal,
}

// ReadFile decodes the config file at path. The extension picks the
// format: .yaml, .yml or .json.
func ReadFile(path string) (Values, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if _, ok := formats[format]; !ok {
		return Values{}, fmt.Errorf("unsupported config file extension %q in %s", filepath.Ext(path), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Values{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(format, data)
}

// Parse decodes data in format into Values. An empty YAML document
// yields empty Values.
func Parse(format string, data []byte) (Values, error) {
	decode, ok := formats[format]
	if !ok {
		return Values{}, fmt.Errorf("unknown config format %q", format)
	}

	var m map[string]any
	if err := decode(data, &m); err != nil {
		return Values{}, fmt.Errorf("parse %s config: %w", format, err)
	}
	return NewValues(m), nil
}
