package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/filewire/filewire/pkg/wireclient"
)

var (
	getOffset  uint64
	getSize    uint64
	getOutput  string
	getTimeout time.Duration
)

var getCmd = &cobra.Command{
	Use:   "get <host:port> <name>",
	Short: "Read a file, or a byte range of it, from a filewire server",
	Long: `Without --offset/--size, get issues get_metadata to report the file's
size. With both flags set, it issues get_slice and writes the decoded
bytes to stdout, or to the file named by --output.

Examples:
  filewirectl get localhost:9090 report.csv
  filewirectl get localhost:9090 report.csv --offset 0 --size 4096
  filewirectl get localhost:9090 report.csv --offset 0 --size 4096 --output chunk.bin`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func init() {
	getCmd.Flags().Uint64Var(&getOffset, "offset", 0, "Byte offset to start reading from")
	getCmd.Flags().Uint64Var(&getSize, "size", 0, "Number of bytes to read")
	getCmd.Flags().StringVar(&getOutput, "output", "", "Write the slice to this file instead of stdout")
	getCmd.Flags().DurationVar(&getTimeout, "timeout", 10*time.Second, "Connection timeout")
}

func runGet(cmd *cobra.Command, args []string) error {
	addr, name := args[0], args[1]

	ctx, cancel := context.WithTimeout(context.Background(), getTimeout)
	defer cancel()

	client, err := wireclient.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if !cmd.Flags().Changed("offset") && !cmd.Flags().Changed("size") {
		size, err := client.GetMetadata(ctx, name)
		if err != nil {
			return fmt.Errorf("get metadata for %s: %w", name, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", name, size)
		return nil
	}

	data, err := client.GetSlice(ctx, name, getOffset, getSize)
	if err != nil {
		return fmt.Errorf("get slice of %s: %w", name, err)
	}

	if getOutput == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(getOutput, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", getOutput, err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(data), getOutput)
	return nil
}
