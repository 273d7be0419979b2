// Package cmdutil holds the small set of helpers shared between
// filewirectl's commands. Unlike the server CLI's operator tooling, the
// wire protocol has no authentication or resource model to manage, so
// this only covers output formatting.
package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/filewire/filewire/internal/cli/output"
)

// NewPrinter builds an output.Printer from the global --output/--no-color
// flags, writing to stdout.
func NewPrinter(format string, color bool) (*output.Printer, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(os.Stdout, f, color), nil
}

// PrintResource prints a single value through the printer, falling back
// to a plain message when data is nil.
func PrintResource(w io.Writer, p *output.Printer, data any, emptyMsg string) error {
	if data == nil {
		_, _ = fmt.Fprintln(w, emptyMsg)
		return nil
	}
	return p.Print(data)
}

// EmptyOr returns value, or fallback when value is empty.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
