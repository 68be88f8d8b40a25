package normalisers

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// maxPartSize bounds how much of a single archive part is read
const maxPartSize = 32 << 20

// openPackage opens an Office Open XML package held in memory.
func openPackage(content []byte) (*zip.Reader, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not an office package: %v", domain.ErrInvalidInput, err)
	}
	return reader, nil
}

// readPart returns the bytes of a named package part.
func readPart(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidInput, file.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidInput, file.Name, err)
	}
	return data, nil
}

// partText collects the character data of every <t> element in an OOXML part,
// starting a new line at the end of each <p> paragraph. Both WordprocessingML
// (w:t, w:p) and DrawingML (a:t, a:p) use these local names.
func partText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: malformed xml: %v", domain.ErrInvalidInput, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(el)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
