package postprocessors

import (
	"unicode"

	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// breakWindow is how far back from a chunk limit a break point is searched for
const breakWindow = 100

// ChunkConfig configures the chunker behavior.
// Sizes and offsets are measured in characters, not bytes.
type ChunkConfig struct {
	// MaxChunkSize is the maximum characters per chunk
	MaxChunkSize int

	// Overlap is the character overlap between chunks
	Overlap int

	// PreserveSentences tries to break at sentence boundaries
	PreserveSentences bool

	// PreserveParagraphs tries to break at paragraph boundaries
	PreserveParagraphs bool
}

// DefaultChunkConfig returns the defaults for study material.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize:       1000,
		Overlap:            200,
		PreserveSentences:  true,
		PreserveParagraphs: true,
	}
}

// Chunker splits content into overlapping chunks.
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker with the given config.
func NewChunker(config ChunkConfig) *Chunker {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultChunkConfig().MaxChunkSize
	}
	if config.Overlap < 0 || config.Overlap >= config.MaxChunkSize {
		config.Overlap = 0
	}
	return &Chunker{config: config}
}

// Process splits every input chunk, renumbering positions across the output.
func (c *Chunker) Process(chunks []driven.Chunk) []driven.Chunk {
	var result []driven.Chunk
	for _, chunk := range chunks {
		for _, piece := range c.split([]rune(chunk.Content), chunk.StartOffset) {
			piece.Position = len(result)
			result = append(result, piece)
		}
	}
	return result
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - chunker runs first.
func (c *Chunker) Order() int {
	return 0
}

func (c *Chunker) split(text []rune, baseOffset int) []driven.Chunk {
	if len(text) <= c.config.MaxChunkSize {
		return []driven.Chunk{{
			Content:     string(text),
			StartOffset: baseOffset,
			EndOffset:   baseOffset + len(text),
		}}
	}

	var chunks []driven.Chunk
	start := 0
	for start < len(text) {
		end := start + c.config.MaxChunkSize
		if end > len(text) {
			end = len(text)
		}
		if end < len(text) {
			end = c.breakPoint(text, start, end)
		}

		chunks = append(chunks, driven.Chunk{
			Content:     string(text[start:end]),
			StartOffset: baseOffset + start,
			EndOffset:   baseOffset + end,
		})

		if end >= len(text) {
			break
		}

		next := end - c.config.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// breakPoint picks the latest paragraph, sentence or word boundary in the window
// before maxEnd. It always returns a position after start.
func (c *Chunker) breakPoint(text []rune, start, maxEnd int) int {
	from := maxEnd - breakWindow
	if from < start {
		from = start
	}

	if c.config.PreserveParagraphs {
		for i := maxEnd - 1; i > from; i-- {
			if text[i] == '\n' && text[i-1] == '\n' {
				return i + 1
			}
		}
	}

	if c.config.PreserveSentences {
		for i := maxEnd - 1; i > from; i-- {
			if unicode.IsSpace(text[i]) && isSentenceEnd(text[i-1]) {
				return i + 1
			}
		}
	}

	for i := maxEnd - 1; i > from; i-- {
		if text[i] == ' ' {
			return i + 1
		}
	}

	return maxEnd
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}
