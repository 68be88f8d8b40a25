package normalisers

import (
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Normaliser = (*PPTXNormaliser)(nil)

// PPTXNormaliser extracts slide text from presentations.
// Slides are separated by a blank line so each tends to become its own chunk.
type PPTXNormaliser struct{}

// NewPPTXNormaliser creates a PPTX normaliser.
func NewPPTXNormaliser() *PPTXNormaliser {
	return &PPTXNormaliser{}
}

type slidePart struct {
	number int
	text   string
}

// Normalise reads ppt/slides/slideN.xml parts in slide order.
func (n *PPTXNormaliser) Normalise(content []byte, _ string) (string, error) {
	reader, err := openPackage(content)
	if err != nil {
		return "", err
	}

	var slides []slidePart
	for _, file := range reader.File {
		num, ok := slideNumber(file.Name)
		if !ok {
			continue
		}
		data, err := readPart(file)
		if err != nil {
			return "", err
		}
		text, err := partText(data)
		if err != nil {
			return "", err
		}
		if text != "" {
			slides = append(slides, slidePart{number: num, text: text})
		}
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	texts := make([]string, len(slides))
	for i, s := range slides {
		texts[i] = s.text
	}
	return strings.Join(texts, "\n\n"), nil
}

// SupportedTypes returns the MIME types this normaliser handles.
func (n *PPTXNormaliser) SupportedTypes() []string {
	return []string{domain.DocumentKindPPTX.MimeType()}
}

// Priority returns the selection priority.
func (n *PPTXNormaliser) Priority() int {
	return 50
}

// slideNumber parses "ppt/slides/slide12.xml" into 12.
func slideNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "ppt/slides/slide")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".xml")
	if !ok {
		return 0, false
	}
	num, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return num, true
}
