package knowledge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"codeberg.org/qapilot/server/internal/logger"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	frontmatterRegex = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n`)
	headerRegex      = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
)

// namespace for chunk ids, so re-ingesting a file overwrites its chunks
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("qapilot/knowledge"))

func DefaultOptions() ChunkOptions {
	return ChunkOptions{
		MaxTokens:       800,
		PreserveHeaders: true,
	}
}

// splits a markdown document into heading sections. Front matter keys become
// metadata on every chunk.
func ChunkDocument(content, source string, opts ChunkOptions) ([]Chunk, error) {
	metadata, err := extractFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}

	content = frontmatterRegex.ReplaceAllString(content, "")

	var chunks []Chunk

	for _, section := range splitByHeaders(content) {
		if estimateTokens(section.Content) <= opts.MaxTokens {
			chunks = append(chunks, Chunk{
				Source:       source,
				SectionTitle: section.Title,
				Content:      strings.TrimSpace(section.Content),
				Metadata:     metadata,
			})

			continue
		}

		for _, sub := range splitLargeSection(section, opts) {
			chunks = append(chunks, Chunk{
				Source:       source,
				SectionTitle: section.Title,
				Content:      strings.TrimSpace(sub),
				Metadata:     metadata,
			})
		}
	}

	return chunks, nil
}

// discovers all markdown files under dir and chunks them into documents.
// returns documents and a slice of errors encountered (one per failed file)
func ChunkDirectory(dir string, opts ChunkOptions) ([]Document, []error) {
	var docs []Document
	var errs []error
	fileCount := 0

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("error accessing path",
				"path", path,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("path %s: %w", path, err))
			return nil
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".markdown" {
			return nil
		}

		fileCount++

		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			return nil
		}

		source, err := filepath.Rel(dir, path)
		if err != nil {
			source = filepath.Base(path)
		}

		source = filepath.ToSlash(source)

		chunks, err := ChunkDocument(string(content), source, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("chunk %s: %w", path, err))
			return nil
		}

		docs = append(docs, chunksToDocuments(chunks)...)

		return nil
	})

	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walk error: %w", walkErr))
	}

	logger.Info("processed markdown files",
		"file_count", fileCount,
		"chunks_generated", len(docs),
		"errors", len(errs),
	)

	return docs, errs
}

// turns chunks of one file into documents with stable ids
func chunksToDocuments(chunks []Chunk) []Document {
	docs := make([]Document, 0, len(chunks))

	for i, chunk := range chunks {
		if chunk.Content == "" {
			continue
		}

		md := make(map[string]string, len(chunk.Metadata)+2)
		for k, v := range chunk.Metadata {
			md[k] = v
		}

		md[MetaSource] = chunk.Source
		if chunk.SectionTitle != "" {
			md[MetaSection] = chunk.SectionTitle
		}

		docs = append(docs, Document{
			ID:       uuid.NewSHA1(chunkNamespace, []byte(chunk.Source+"#"+strconv.Itoa(i))).String(),
			Content:  chunk.Content,
			Metadata: md,
		})
	}

	return docs
}

func splitByHeaders(content string) []Section {
	lines := strings.Split(content, "\n")

	var sections []Section
	var current *Section
	inFence := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}

		var matches []string
		if !inFence {
			matches = headerRegex.FindStringSubmatch(line)
		}

		switch {
		case len(matches) > 0:
			if current != nil && strings.TrimSpace(current.Content) != "" {
				sections = append(sections, *current)
			}

			current = &Section{
				Title:   strings.TrimSpace(matches[2]),
				Level:   len(matches[1]),
				Content: line + "\n",
			}

		case current != nil:
			current.Content += line + "\n"

		default:
			// content before any header
			current = &Section{Content: line + "\n"}
		}
	}

	if current != nil && strings.TrimSpace(current.Content) != "" {
		sections = append(sections, *current)
	}

	return sections
}

func splitLargeSection(section Section, opts ChunkOptions) []string {
	var chunks []string
	paragraphs := strings.Split(section.Content, "\n\n")

	var current strings.Builder
	headerWritten := false

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if estimateTokens(current.String()+"\n\n"+para) > opts.MaxTokens && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			headerWritten = false
		}

		if !headerWritten && opts.PreserveHeaders && section.Title != "" && !strings.HasPrefix(para, "#") {
			fmt.Fprintf(&current, "%s %s", strings.Repeat("#", section.Level), section.Title)
			headerWritten = true
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}

		current.WriteString(para)
		headerWritten = true
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

func estimateTokens(text string) int {
	return len(text) / 4
}

// parses YAML front matter into flat string metadata
func extractFrontmatter(content string) (map[string]string, error) {
	metadata := make(map[string]string)

	matches := frontmatterRegex.FindStringSubmatch(content)
	if len(matches) < 2 {
		return metadata, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(matches[1]), &raw); err != nil {
		return nil, err
	}

	for k, v := range raw {
		if v == nil {
			continue
		}

		metadata[strings.ToLower(strings.TrimSpace(k))] = fmt.Sprint(v)
	}

	return metadata, nil
}
