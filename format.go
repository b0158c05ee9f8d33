// FILE: lixenwraith/namespace/format.go
package namespace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/magiconair/properties"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Supported file formats.
const (
	FormatProperties = "properties"
	FormatINI        = "ini"
	FormatTOML       = "toml"
	FormatYAML       = "yaml"
	FormatJSON       = "json"
)

// ParseRecords flattens data of the given format into ordered records.
// Nested structures are joined with delim. Sequences of scalars become
// repeated records for the same key; sequences of tables are indexed.
func ParseRecords(format string, data []byte, delim string) ([]Record, error) {
	switch format {
	case FormatProperties:
		return propertiesRecords(data)
	case FormatINI:
		return iniRecords(data, delim)
	case FormatTOML:
		return tomlRecords(data, delim)
	case FormatYAML, FormatJSON:
		return yamlRecords(data, delim)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".properties", ".props":
		return FormatProperties
	case ".ini", ".cfg":
		return FormatINI
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".conf", ".config":
		// Try to detect from content
		return ""
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing.
// Properties accepts nearly any input, so it is the fallback.
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	if json.Valid(data) {
		return FormatJSON
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	// YAML only counts when the document is a mapping
	var yamlTest yaml.Node
	if err := yaml.Unmarshal(data, &yamlTest); err == nil &&
		len(yamlTest.Content) > 0 && yamlTest.Content[0].Kind == yaml.MappingNode {
		return FormatYAML
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		if _, err := ini.Load(data); err == nil {
			return FormatINI
		}
	}

	return FormatProperties
}

// propertiesRecords loads one logical line at a time so a repeated key
// yields one record per occurrence, in file order.
func propertiesRecords(data []byte) ([]Record, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}

	var records []Record
	for _, line := range propertiesLines(string(data)) {
		p, err := loader.LoadBytes([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("failed to parse properties: %w", err)
		}
		for _, key := range p.Keys() {
			value, _ := p.Get(key)
			records = append(records, Record{Key: key, Value: value})
		}
	}
	return records, nil
}

// propertiesLines splits data into logical lines, joining physical lines
// that end in an unescaped backslash. Blank and comment lines are dropped.
func propertiesLines(data string) []string {
	var lines []string
	var current strings.Builder
	for _, physical := range strings.Split(data, "\n") {
		physical = strings.TrimSuffix(physical, "\r")
		if current.Len() == 0 {
			trimmed := strings.TrimLeft(physical, " \t\f")
			if trimmed == "" || trimmed[0] == '#' || trimmed[0] == '!' {
				continue
			}
		}
		current.WriteString(physical)
		current.WriteByte('\n')

		trailing := len(physical) - len(strings.TrimRight(physical, "\\"))
		if trailing%2 == 1 {
			continue
		}
		lines = append(lines, current.String())
		current.Reset()
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// iniRecords maps each section to a path prefix. Keys of the default
// section sit at the root; shadowed keys become repeated records.
func iniRecords(data []byte, delim string) ([]Record, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse INI: %w", err)
	}

	var records []Record
	for _, section := range cfg.Sections() {
		prefix := section.Name()
		if prefix == ini.DefaultSection {
			prefix = ""
		}
		for _, key := range section.Keys() {
			path := joinPath(prefix, key.Name(), delim)
			for _, value := range key.ValueWithShadows() {
				records = append(records, Record{Key: path, Value: value})
			}
		}
	}
	return records, nil
}

// tomlRecords follows document order as reported by the decoder metadata.
func tomlRecords(data []byte, delim string) ([]Record, error) {
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	var records []Record
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		v, ok := lookupNested(doc, key)
		if !ok {
			continue
		}
		if _, isTable := v.(map[string]any); isTable {
			continue
		}
		// Array of tables headers repeat per element
		path := Join(key, delim)
		if seen[path] {
			continue
		}
		seen[path] = true
		records = appendValue(records, path, v, delim)
	}
	return records, nil
}

func lookupNested(doc map[string]any, key toml.Key) (any, bool) {
	var current any = doc
	for _, segment := range key {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[segment]; !ok {
			return nil, false
		}
	}
	return current, true
}

// appendValue flattens a decoded TOML value under path.
func appendValue(records []Record, path string, v any, delim string) []Record {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			records = appendValue(records, joinPath(path, k, delim), x[k], delim)
		}
	case []map[string]any:
		for i, m := range x {
			records = appendValue(records, joinPath(path, strconv.Itoa(i), delim), m, delim)
		}
	case []any:
		for i, e := range x {
			switch e.(type) {
			case map[string]any, []any, []map[string]any:
				records = appendValue(records, joinPath(path, strconv.Itoa(i), delim), e, delim)
			default:
				records = append(records, Record{Key: path, Value: scalarString(e)})
			}
		}
	default:
		records = append(records, Record{Key: path, Value: scalarString(x)})
	}
	return records
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// yamlRecords walks the node tree so mapping order is preserved. JSON is
// handled here as well since every JSON document is valid YAML.
func yamlRecords(data []byte, delim string) ([]Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return walkYAML(nil, "", doc.Content[0], delim)
}

func walkYAML(records []Record, path string, n *yaml.Node, delim string) ([]Record, error) {
	var err error
	switch n.Kind {
	case yaml.AliasNode:
		return walkYAML(records, path, n.Alias, delim)
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Tag == "!!merge" {
				records, err = walkYAML(records, path, v, delim)
			} else {
				records, err = walkYAML(records, joinPath(path, k.Value, delim), v, delim)
			}
			if err != nil {
				return nil, err
			}
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			if item.Kind == yaml.AliasNode {
				item = item.Alias
			}
			if item.Kind == yaml.ScalarNode {
				records = append(records, Record{Key: path, Value: yamlScalar(item)})
				continue
			}
			records, err = walkYAML(records, joinPath(path, strconv.Itoa(i), delim), item, delim)
			if err != nil {
				return nil, err
			}
		}
	case yaml.ScalarNode:
		if path == "" {
			return nil, fmt.Errorf("line %d: document is a scalar, not a mapping", n.Line)
		}
		records = append(records, Record{Key: path, Value: yamlScalar(n)})
	}
	return records, nil
}

func yamlScalar(n *yaml.Node) string {
	if n.Tag == "!!null" {
		return ""
	}
	return n.Value
}
