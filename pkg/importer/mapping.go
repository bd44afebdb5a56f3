package importer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping translates spreadsheet headers to resource fields.
//
//	version: 1
//	resources:
//	  hw-asset:
//	    sheet: Hardware
//	    columns:
//	      "Asset No": assetnum
//	    aliases:
//	      sn: ["Serial", "S/N"]
type Mapping struct {
	Version   int                        `yaml:"version"`
	Resources map[string]ResourceMapping `yaml:"resources"`
}

// ResourceMapping is the header mapping of one resource.
type ResourceMapping struct {
	Sheet   string              `yaml:"sheet"`
	Columns map[string]string   `yaml:"columns"`
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadMapping reads a YAML mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes a YAML mapping document.
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if m.Version != 1 {
		return nil, fmt.Errorf("unsupported mapping version %d", m.Version)
	}
	return &m, nil
}

// resolver maps an upper-cased header to a field name.
type resolver map[string]string

func newResolver(fields []Field, rm ResourceMapping) resolver {
	known := make(map[string]bool, len(fields))
	r := resolver{}
	for _, f := range fields {
		known[f.Name] = true
		r[strings.ToUpper(f.Name)] = f.Name
	}
	for field, aliases := range rm.Aliases {
		if !known[field] {
			continue
		}
		for _, a := range aliases {
			r[strings.ToUpper(strings.TrimSpace(a))] = field
		}
	}
	for header, field := range rm.Columns {
		if known[field] {
			r[strings.ToUpper(strings.TrimSpace(header))] = field
		}
	}
	return r
}

func (r resolver) field(header string) (string, bool) {
	f, ok := r[strings.ToUpper(strings.TrimSpace(header))]
	return f, ok
}
