package knowledge

import "errors"

var ErrEmptyContent = errors.New("document content is empty")

// metadata keys carried by knowledge documents
const (
	MetaType        = "type"
	MetaDomain      = "domain"
	MetaEnvironment = "environment"
	MetaFramework   = "framework"
	MetaBrowser     = "browser"
	MetaCategory    = "category"
	MetaSource      = "source"
	MetaSection     = "section"
)

// type assigned to documents that do not name one
const DefaultType = "documentation"

// a knowledge-base entry before it is embedded
type Document struct {
	ID       string            `yaml:"id" json:"id"`
	Content  string            `yaml:"content" json:"content"`
	Metadata map[string]string `yaml:"metadata" json:"metadata"`
}

// a YAML knowledge file
type documentFile struct {
	Documents []Document `yaml:"documents"`
}

// a markdown section between two headings
type Section struct {
	Title   string
	Level   int
	Content string
}

// a piece of a markdown file small enough to embed on its own
type Chunk struct {
	Source       string
	SectionTitle string
	Content      string
	Metadata     map[string]string
}

type ChunkOptions struct {
	MaxTokens       int
	PreserveHeaders bool
}
