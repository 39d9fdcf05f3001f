package note

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Extension is the suffix appended to every generated note file.
const Extension = ".md"

// Path returns the destination path for a note with the given base name.
func Path(dir, baseName string) string {
	return filepath.Join(dir, baseName+Extension)
}

// Render produces the full content of a note: a YAML frontmatter block
// containing one entry per column, in column order, and nothing else.
// Empty values are preserved as empty strings so every note carries the
// same set of keys.
func Render(columns []string, record map[string]string) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("no columns selected for frontmatter")
	}

	// Build the mapping by hand so key order follows the column order and
	// numeric looking values ("123", "true") stay strings when the note is
	// parsed back.
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, col := range columns {
		value := strings.TrimSpace(record[col])
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
		)
	}

	encoded, err := yaml.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}

	return "---\n" + string(encoded) + "---\n", nil
}
