package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingResult_TableRenderer(t *testing.T) {
	result := listingResult{
		{Name: "a.txt", Size: "10"},
		{Name: "b.txt", Size: ""},
	}

	assert.Equal(t, []string{"NAME", "SIZE"}, result.Headers())
	assert.Equal(t, [][]string{
		{"a.txt", "10"},
		{"b.txt", ""},
	}, result.Rows())
}
