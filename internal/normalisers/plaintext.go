package normalisers

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Normaliser = (*PlaintextNormaliser)(nil)

// PlaintextNormaliser handles plain text and markdown notes.
type PlaintextNormaliser struct{}

// NewPlaintextNormaliser creates a plain text normaliser.
func NewPlaintextNormaliser() *PlaintextNormaliser {
	return &PlaintextNormaliser{}
}

// Normalise returns the text with unified line endings.
// Content that is not valid UTF-8 is rejected.
func (n *PlaintextNormaliser) Normalise(content []byte, _ string) (string, error) {
	if !utf8.Valid(content) {
		return "", domain.ErrInvalidInput
	}
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	return strings.TrimSpace(text), nil
}

// SupportedTypes returns the MIME types this normaliser handles.
func (n *PlaintextNormaliser) SupportedTypes() []string {
	return []string{"text/*"}
}

// Priority returns the selection priority.
func (n *PlaintextNormaliser) Priority() int {
	return 10
}
