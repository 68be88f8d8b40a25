package normalisers

import (
	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Normaliser = (*DOCXNormaliser)(nil)

// DOCXNormaliser extracts paragraph text from word documents.
type DOCXNormaliser struct{}

// NewDOCXNormaliser creates a DOCX normaliser.
func NewDOCXNormaliser() *DOCXNormaliser {
	return &DOCXNormaliser{}
}

// Normalise reads word/document.xml from the package.
// A package without a main document part yields empty text.
func (n *DOCXNormaliser) Normalise(content []byte, _ string) (string, error) {
	reader, err := openPackage(content)
	if err != nil {
		return "", err
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		data, err := readPart(file)
		if err != nil {
			return "", err
		}
		return partText(data)
	}
	return "", nil
}

// SupportedTypes returns the MIME types this normaliser handles.
func (n *DOCXNormaliser) SupportedTypes() []string {
	return []string{domain.DocumentKindDOCX.MimeType()}
}

// Priority returns the selection priority.
func (n *DOCXNormaliser) Priority() int {
	return 50
}
