package postprocessors

import (
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// DeduplicatorConfig configures the deduplicator.
type DeduplicatorConfig struct {
	// MinDuplicateLength is the minimum chunk length (characters) checked for duplicates
	MinDuplicateLength int
}

// DefaultDeduplicatorConfig returns sensible defaults.
func DefaultDeduplicatorConfig() DeduplicatorConfig {
	return DeduplicatorConfig{
		MinDuplicateLength: 50,
	}
}

// Deduplicator drops chunks whose text repeats an earlier chunk, ignoring case and
// surrounding whitespace. Slide decks and handouts repeat headers and footers a lot.
type Deduplicator struct {
	config DeduplicatorConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Deduplicator)(nil)

// NewDeduplicator creates a new deduplicator with the given config.
func NewDeduplicator(config DeduplicatorConfig) *Deduplicator {
	return &Deduplicator{config: config}
}

// Process removes duplicate chunks, keeping the first occurrence.
func (d *Deduplicator) Process(chunks []driven.Chunk) []driven.Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	seen := make(map[[32]byte]struct{}, len(chunks))
	result := make([]driven.Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		normalized := strings.ToLower(strings.TrimSpace(chunk.Content))
		if len([]rune(normalized)) < d.config.MinDuplicateLength {
			result = append(result, chunk)
			continue
		}

		sum := blake2b.Sum256([]byte(normalized))
		if _, dup := seen[sum]; dup {
			continue
		}
		seen[sum] = struct{}{}
		result = append(result, chunk)
	}

	return result
}

// Name returns the processor name.
func (d *Deduplicator) Name() string {
	return "deduplicator"
}

// Order returns 10 - deduplicator runs after whitespace normalisation.
func (d *Deduplicator) Order() int {
	return 10
}
