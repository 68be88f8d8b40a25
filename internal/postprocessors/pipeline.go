package postprocessors

import (
	"sort"
	"sync"

	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It turns normalised document text into tagged chunks for the knowledge store.
type Pipeline struct {
	mu         sync.Mutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates an empty post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add adds a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order, starting from a single chunk that
// spans the whole text.
func (p *Pipeline) Process(content string) []driven.Chunk {
	processors := p.ordered()

	chunks := []driven.Chunk{{
		Content:   content,
		EndOffset: len([]rune(content)),
	}}
	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}
	return chunks
}

// List returns processor names in execution order.
func (p *Pipeline) List() []string {
	processors := p.ordered()

	names := make([]string, len(processors))
	for i, proc := range processors {
		names[i] = proc.Name()
	}
	return names
}

func (p *Pipeline) ordered() []driven.PostProcessor {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	return append([]driven.PostProcessor(nil), p.processors...)
}

// DefaultPipeline creates the pipeline used for uploaded study material:
// chunker, whitespace normalizer, deduplicator, then the topic tagger.
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(NewChunker(DefaultChunkConfig()))
	p.Add(NewWhitespaceNormalizer())
	p.Add(NewDeduplicator(DefaultDeduplicatorConfig()))
	p.Add(NewTagger(DefaultTaggerConfig()))
	return p
}
