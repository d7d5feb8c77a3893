package vmdl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// jsonFallback is what ToJSON returns when encoding fails.
const jsonFallback = "Error converting to JSON"

// Format is an output notation for a parsed document.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists every supported output format.
var Formats = []Format{FormatJSON, FormatText, FormatYAML, FormatTOML}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", name)
}

// Render converts v into the given format.
func Render(v Value, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return ToJSON(v), nil
	case FormatText:
		return ToText(v, 0), nil
	case FormatYAML:
		return ToYAML(v)
	case FormatTOML:
		return ToTOML(v)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// MarshalJSON encodes leaves as JSON strings and containers as objects.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toAny())
}

// ToJSON renders v as pretty-printed JSON. It never fails; an encoding error
// yields a fixed message instead.
func ToJSON(v Value) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v.toAny()); err != nil {
		return jsonFallback
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// ToText renders v in VMDL notation starting at the given indentation.
// Nested containers are indented four more spaces than their parent.
func ToText(v Value, indent int) string {
	if s, ok := v.AsString(); ok {
		return s
	}

	pad := strings.Repeat(" ", indent)
	var sb strings.Builder
	for _, key := range v.Keys() {
		child := v.children[key]
		if child.IsContainer() {
			sb.WriteString(pad + key + ":\n")
			sb.WriteString(ToText(child, indent+4))
			continue
		}
		sb.WriteString(pad + key + " = " + child.leaf + "\n")
	}
	return sb.String()
}

// ToYAML renders v as a YAML document. Every leaf is emitted as a string.
func ToYAML(v Value) (string, error) {
	if v.Kind() == KindInvalid {
		return "", fmt.Errorf("cannot convert invalid value to YAML")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return "", fmt.Errorf("yaml encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("yaml encode: %w", err)
	}
	return buf.String(), nil
}

func yamlNode(v Value) *yaml.Node {
	if s, ok := v.AsString(); ok {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	}

	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range v.Keys() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			yamlNode(v.children[key]),
		)
	}
	return node
}

// ToTOML renders a container as a TOML document.
func ToTOML(v Value) (string, error) {
	if !v.IsContainer() {
		return "", fmt.Errorf("cannot convert %s to TOML: root must be a container", v.Kind())
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v.toAny()); err != nil {
		return "", fmt.Errorf("toml encode: %w", err)
	}
	return buf.String(), nil
}
