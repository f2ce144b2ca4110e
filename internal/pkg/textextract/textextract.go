package textextract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoText          = errors.New("no extractable text")
)

// maxCSVRows caps how much of a spreadsheet gets rendered into text.
const maxCSVRows = 1000

// Extract turns raw uploaded bytes into plain text based on the declared
// type. This is the only place the service touches file formats; everything
// downstream sees plain text.
func Extract(data []byte, declaredType string) (string, error) {
	if len(data) == 0 {
		return "", ErrNoText
	}

	var text string
	var err error
	switch normalizeType(declaredType) {
	case "pdf":
		text, err = extractPDF(data)
	case "txt", "md", "json":
		text = string(data)
	case "csv":
		text, err = extractCSV(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, declaredType)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Supported reports whether a declared type can be extracted, so uploads of
// unknown formats are rejected before a job is enqueued.
func Supported(declaredType string) bool {
	switch normalizeType(declaredType) {
	case "pdf", "txt", "md", "json", "csv":
		return true
	}
	return false
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.TrimPrefix(t, ".")
	switch t {
	case "markdown":
		return "md"
	case "text", "plain":
		return "txt"
	}
	return t
}

func extractPDF(data []byte) (string, error) {
	readerAt := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(out), nil
}

// extractCSV renders rows as "column: value; ..." lines so tabular data
// stays searchable as prose.
func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return "", fmt.Errorf("read csv header failed: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Columns: " + strings.Join(header, ", ") + "\n\n")

	rows := 0
	for rows < maxCSVRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv row failed: %w", err)
		}
		var parts []string
		for i, value := range record {
			if value == "" {
				continue
			}
			col := fmt.Sprintf("col%d", i+1)
			if i < len(header) {
				col = header[i]
			}
			parts = append(parts, col+": "+value)
		}
		if len(parts) > 0 {
			sb.WriteString(strings.Join(parts, "; ") + "\n")
			rows++
		}
	}
	return sb.String(), nil
}
