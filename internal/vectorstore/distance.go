package vectorstore

import (
	"fmt"
	"math"
	"sort"
)

// returns 1 - cosine similarity; zero vectors are treated as orthogonal
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1, nil
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}

// brute-force nearest neighbour search shared by the embedded backends
func rank(docs []Document, embedding []float32, k int, filter Filter) ([]Match, error) {
	matches := make([]Match, 0, len(docs))

	for _, doc := range docs {
		if !filter.Matches(doc.Metadata) {
			continue
		}

		dist, err := CosineDistance(embedding, doc.Embedding)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}

		matches = append(matches, Match{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: copyMetadata(doc.Metadata),
			Distance: dist,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}

func copyMetadata(md map[string]string) map[string]string {
	if md == nil {
		return map[string]string{}
	}

	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}

	return out
}
