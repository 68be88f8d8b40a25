package postprocessors

import (
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// DefaultTopic labels chunks that carry no recognisable heading
const DefaultTopic = "study material"

// TaggerConfig configures the topic and keyword tagger.
type TaggerConfig struct {
	// DefaultTopic is used when a chunk has no heading line
	DefaultTopic string

	// MaxHeadingLength is the longest first line (characters) treated as a heading
	MaxHeadingLength int

	// MaxKeywords caps the keywords assigned to a chunk
	MaxKeywords int

	// MinKeywordLength is the shortest word (characters) considered a keyword
	MinKeywordLength int

	// Stopwords are never used as keywords
	Stopwords []string
}

// DefaultTaggerConfig returns sensible defaults.
func DefaultTaggerConfig() TaggerConfig {
	return TaggerConfig{
		DefaultTopic:     DefaultTopic,
		MaxHeadingLength: 80,
		MaxKeywords:      5,
		MinKeywordLength: 4,
		Stopwords: []string{
			"that", "this", "with", "from", "have", "were", "which", "their",
			"there", "these", "those", "into", "about", "also", "been", "than",
			"then", "them", "they", "when", "where", "while", "will", "would",
		},
	}
}

// Tagger assigns a topic label and keywords to each chunk.
// The topic is the chunk's heading line when it has one; keywords are the most
// frequent significant words, ties broken by first appearance.
type Tagger struct {
	config    TaggerConfig
	stopwords map[string]struct{}
}

// Verify interface compliance
var _ driven.PostProcessor = (*Tagger)(nil)

// NewTagger creates a new tagger with the given config.
func NewTagger(config TaggerConfig) *Tagger {
	if config.DefaultTopic == "" {
		config.DefaultTopic = DefaultTopic
	}
	stop := make(map[string]struct{}, len(config.Stopwords))
	for _, w := range config.Stopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Tagger{config: config, stopwords: stop}
}

// Process tags every chunk. Chunks that already carry a topic keep it.
func (t *Tagger) Process(chunks []driven.Chunk) []driven.Chunk {
	result := make([]driven.Chunk, len(chunks))
	for i, chunk := range chunks {
		if chunk.Topic == "" {
			chunk.Topic = t.topic(chunk.Content)
		}
		if len(chunk.Keywords) == 0 {
			chunk.Keywords = t.keywords(chunk.Content)
		}
		result[i] = chunk
	}
	return result
}

// Name returns the processor name.
func (t *Tagger) Name() string {
	return "tagger"
}

// Order returns 20 - tagging runs on the final chunk set.
func (t *Tagger) Order() int {
	return 20
}

func (t *Tagger) topic(content string) string {
	first, rest, found := strings.Cut(content, "\n")
	first = strings.TrimSpace(strings.Trim(first, "#*:- \t"))
	if !found || strings.TrimSpace(rest) == "" || first == "" {
		return t.config.DefaultTopic
	}
	if len([]rune(first)) > t.config.MaxHeadingLength || isSentenceEnd(lastRune(first)) {
		return t.config.DefaultTopic
	}
	return first
}

func (t *Tagger) keywords(content string) []string {
	if t.config.MaxKeywords <= 0 {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	words := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		if len([]rune(w)) < t.config.MinKeywordLength {
			continue
		}
		if _, stop := t.stopwords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > t.config.MaxKeywords {
		order = order[:t.config.MaxKeywords]
	}
	return order
}

func lastRune(s string) rune {
	r := []rune(s)
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}
