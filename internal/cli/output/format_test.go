package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":     FormatTable,
		"table": FormatTable,
		"JSON": FormatJSON,
		"yaml": FormatYAML,
		"yml":  FormatYAML,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestPrinter_PrintJSONFallback(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON, false)
	assert.NoError(t, p.Print(map[string]string{"name": "a.txt"}))
	assert.Contains(t, buf.String(), "a.txt")
}

func TestTableData_HeadersAndRows(t *testing.T) {
	td := NewTableData("NAME", "SIZE")
	td.AddRow("a.txt", "5")
	assert.Equal(t, []string{"NAME", "SIZE"}, td.Headers())
	assert.Equal(t, [][]string{{"a.txt", "5"}}, td.Rows())
}
