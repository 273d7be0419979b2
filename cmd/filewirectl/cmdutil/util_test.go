package cmdutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyOr(t *testing.T) {
	assert.Equal(t, "fallback", EmptyOr("", "fallback"))
	assert.Equal(t, "value", EmptyOr("value", "fallback"))
}

func TestNewPrinter_RejectsInvalidFormat(t *testing.T) {
	_, err := NewPrinter("xml", true)
	require.Error(t, err)
}

func TestNewPrinter_AcceptsKnownFormats(t *testing.T) {
	for _, f := range []string{"table", "json", "yaml", ""} {
		p, err := NewPrinter(f, false)
		require.NoError(t, err)
		assert.NotNil(t, p)
	}
}
