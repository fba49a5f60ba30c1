// Package frontmatter reads and writes the YAML header that ties a local
// markdown file to its document.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var block = regexp.MustCompile(`(?s)\A---\n(.*?)\n---\n`)

// Field is one key/value pair of a header, written in order
type Field struct {
	Key   string
	Value string
}

// Parse splits content into header fields and body. Content without a
// header is returned unchanged with nil metadata. Only scalar values are
// kept.
func Parse(content string) (map[string]string, string) {
	m := block.FindStringSubmatchIndex(content)
	if m == nil {
		return nil, content
	}
	raw := content[m[2]:m[3]]
	body := content[m[1]:]

	meta, err := parseYAML(raw)
	if err != nil {
		// Headers written by hand are often not valid YAML
		meta = parseLines(raw)
	}
	return meta, body
}

func parseYAML(raw string) (map[string]string, error) {
	var values map[string]any
	if err := yaml.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}

	meta := make(map[string]string, len(values))
	for k, v := range values {
		switch v := v.(type) {
		case nil, map[string]any, []any:
			continue
		case string:
			meta[k] = v
		default:
			meta[k] = fmt.Sprint(v)
		}
	}
	return meta, nil
}

func parseLines(raw string) map[string]string {
	meta := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		if key = strings.TrimSpace(key); key != "" {
			meta[key] = strings.TrimSpace(value)
		}
	}
	return meta
}

// Add prepends a header with fields to body
func Add(body string, fields ...Field) (string, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value},
		)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	if len(fields) > 0 {
		data, err := yaml.Marshal(node)
		if err != nil {
			return "", fmt.Errorf("failed to encode frontmatter: %w", err)
		}
		sb.Write(data)
	}
	sb.WriteString("---\n")
	sb.WriteString(body)
	return sb.String(), nil
}
