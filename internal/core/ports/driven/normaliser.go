package driven

// Normaliser extracts plain text from an uploaded document.
// It transforms format-specific payloads into text ready for chunking.
type Normaliser interface {
	// Normalise extracts text from raw file content.
	// The mimeType helps determine the appropriate processing.
	// An empty result with a nil error means the format carries no extractable text.
	Normalise(content []byte, mimeType string) (string, error)

	// SupportedTypes returns MIME types this normaliser handles.
	// Can include wildcards like "image/*" or specific types like "application/pdf".
	SupportedTypes() []string

	// Priority returns the normaliser priority (higher = more specific).
	// Priority ranges:
	//   50-89:  Format-specific (DOCX, PPTX)
	//   10-49:  Generic (basic text processing)
	//   1-9:    Fallback (raw text extraction)
	Priority() int
}

// NormaliserRegistry manages content normalisers.
// When multiple normalisers match a MIME type, the highest priority one is used.
type NormaliserRegistry interface {
	// Get retrieves the best-matching normaliser for a MIME type.
	// Returns nil if no normaliser is registered for the type.
	Get(mimeType string) Normaliser

	// GetAll retrieves all normalisers that match a MIME type, sorted by priority (highest first).
	GetAll(mimeType string) []Normaliser

	// Register registers a normaliser.
	Register(normaliser Normaliser)

	// List returns all registered MIME types.
	List() []string
}

// PostProcessor applies post-processing to document content or chunks.
// Processors form a pipeline: Normalizer -> Chunker -> Deduplicator -> Tagger.
type PostProcessor interface {
	// Process applies post-processing to content chunks.
	// The first processor receives a single chunk with the full content.
	// Subsequent processors receive the chunks from the previous stage.
	Process(chunks []Chunk) []Chunk

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// Chunk represents a piece of document content for processing.
type Chunk struct {
	// Content is the text content of the chunk
	Content string

	// Position is the chunk index within the document (0-based)
	Position int

	// StartOffset is the character offset from document start
	StartOffset int

	// EndOffset is the character offset for chunk end
	EndOffset int

	// Topic is the label assigned by the tagger
	Topic string

	// Keywords are the salient terms assigned by the tagger
	Keywords []string
}

// PostProcessorPipeline chains multiple post-processors in order.
type PostProcessorPipeline interface {
	// Process applies all processors in order.
	// Input is the normalised document text.
	// Output is the processed chunks ready for the knowledge store.
	Process(content string) []Chunk

	// Add adds a processor to the pipeline.
	// Processors are sorted by Order() before processing.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
