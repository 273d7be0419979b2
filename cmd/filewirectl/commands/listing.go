package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/filewire/filewire/internal/cli/output"
	"github.com/filewire/filewire/pkg/wireclient"
)

var listingTimeout time.Duration

var listingCmd = &cobra.Command{
	Use:   "listing <host:port>",
	Short: "List the entries a filewire server is sharing",
	Long: `Connect to a filewire server, issue get_file_listing, and print the
resulting entry names. A best-effort get_metadata follow-up fills in
each entry's size; entries that fail (e.g. a directory) are shown with
a blank size rather than aborting the whole listing.

Examples:
  filewirectl listing localhost:9090
  filewirectl listing -o json localhost:9090`,
	Args: cobra.ExactArgs(1),
	RunE: runListing,
}

func init() {
	listingCmd.Flags().DurationVar(&listingTimeout, "timeout", 10*time.Second, "Connection timeout")
}

type listingEntry struct {
	Name string `json:"name" yaml:"name"`
	Size string `json:"size" yaml:"size"`
}

type listingResult []listingEntry

func (r listingResult) Headers() []string { return []string{"NAME", "SIZE"} }

func (r listingResult) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, e := range r {
		rows = append(rows, []string{e.Name, e.Size})
	}
	return rows
}

func runListing(cmd *cobra.Command, args []string) error {
	addr := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), listingTimeout)
	defer cancel()

	client, err := wireclient.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	names, err := client.GetFileListing(ctx)
	if err != nil {
		return fmt.Errorf("list %s: %w", addr, err)
	}

	result := make(listingResult, 0, len(names))
	for _, name := range names {
		entry := listingEntry{Name: name}
		if size, err := client.GetMetadata(ctx, name); err == nil {
			entry.Size = fmt.Sprintf("%d", size)
		}
		result = append(result, entry)
	}

	format, err := output.ParseFormat(OutputFormat())
	if err != nil {
		return err
	}
	printer := output.NewPrinter(cmd.OutOrStdout(), format, ColorEnabled())

	if len(result) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No entries.")
		return nil
	}
	return printer.Print(result)
}
