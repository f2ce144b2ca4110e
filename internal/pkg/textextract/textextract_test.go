package textextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainTextPassthrough(t *testing.T) {
	for _, typ := range []string{"txt", "text", "plain", ".txt", "md", "markdown", "json"} {
		got, err := Extract([]byte("  hello world  "), typ)
		require.NoError(t, err, "type %q", typ)
		assert.Equal(t, "hello world", got)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	for _, typ := range []string{"docx", "xlsx", "png", ""} {
		_, err := Extract([]byte("data"), typ)
		assert.ErrorIs(t, err, ErrUnsupportedType, "type %q", typ)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	_, err := Extract(nil, "txt")
	assert.ErrorIs(t, err, ErrNoText)

	_, err = Extract([]byte("   \n  "), "txt")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractCSV(t *testing.T) {
	data := []byte("name,role\nalice,engineer\nbob,designer\n")
	got, err := Extract(data, "csv")
	require.NoError(t, err)
	assert.Contains(t, got, "Columns: name, role")
	assert.Contains(t, got, "name: alice; role: engineer")
	assert.Contains(t, got, "name: bob; role: designer")
}

func TestExtractCSVSkipsEmptyValues(t *testing.T) {
	data := []byte("name,role\ncarol,\n")
	got, err := Extract(data, "csv")
	require.NoError(t, err)
	assert.Contains(t, got, "name: carol")
	assert.NotContains(t, got, "role:")
}

func TestExtractCSVExtraColumns(t *testing.T) {
	data := []byte("a,b\n1,2,3\n")
	got, err := Extract(data, "csv")
	require.NoError(t, err)
	assert.Contains(t, got, "a: 1; b: 2; col3: 3")
}

func TestSupported(t *testing.T) {
	for _, typ := range []string{"pdf", "txt", ".md", "markdown", "json", "csv", "TEXT"} {
		assert.True(t, Supported(typ), "type %q", typ)
	}
	for _, typ := range []string{"docx", "png", ""} {
		assert.False(t, Supported(typ), "type %q", typ)
	}
}

func TestExtractBrokenPDF(t *testing.T) {
	_, err := Extract([]byte("not a pdf"), "pdf")
	assert.Error(t, err)
}
