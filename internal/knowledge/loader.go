package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// reads knowledge documents from a YAML file. The file is either a list of
// documents or a mapping with a "documents" list.
func LoadFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	docs, err := ParseDocuments(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return docs, nil
}

// decodes YAML knowledge documents
func ParseDocuments(data []byte) ([]Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	// empty file
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]

	switch doc.Kind {
	case yaml.SequenceNode:
		var docs []Document
		if err := doc.Decode(&docs); err != nil {
			return nil, err
		}

		return docs, nil

	case yaml.MappingNode:
		var file documentFile
		if err := doc.Decode(&file); err != nil {
			return nil, err
		}

		return file.Documents, nil

	default:
		return nil, fmt.Errorf("line %d: expected a list of documents or a documents mapping", doc.Line)
	}
}
