package pdfcheck

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Inspection summarizes what a local parse of an uploaded PDF found
type Inspection struct {
	PageCount  int
	Searchable bool   // True when the PDF carries a usable text layer
	Text       string // Extracted text, empty for image-only scans
}

// minSearchableChars is the threshold below which a PDF is treated as an
// image-only scan that needs OCR.
const minSearchableChars = 100

// ValidatePDF checks that the upload looks like a parseable PDF
func ValidatePDF(content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("empty file")
	}
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return fmt.Errorf("file is not a PDF")
	}
	return nil
}

// Inspect parses the PDF locally, returning page count and any text layer.
// Image-only scans parse fine but yield almost no text; those go to OCR.
func Inspect(content []byte) (*Inspection, error) {
	if err := ValidatePDF(content); err != nil {
		return nil, err
	}

	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	inspection := &Inspection{
		PageCount: pdfReader.NumPage(),
	}

	var sb strings.Builder
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if len(text) >= minSearchableChars {
		inspection.Searchable = true
		inspection.Text = text
	}

	return inspection, nil
}
