package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/lecture-fetch/internal/app"
	"github.com/yourusername/lecture-fetch/internal/domain"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Acquire every input listed in a file, one after another",
	Long: `Acquire every input listed in a file, one per line. Blank lines and lines
starting with # are ignored. Use - to read from stdin. Inputs are processed in order,
one at a time; the command fails if any input fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("dest", "d", "", "Destination directory for every input")
	batchCmd.Flags().Bool("skip-existing", false, "Reuse previous results whose files still exist")
	batchCmd.Flags().Bool("stop-on-error", false, "Stop at the first failed input")
	batchCmd.Flags().String("server", "", "Send each input to a running lecture-fetch-server instead (--dest is then relative to its output directory)")
}

// batchItem is the outcome of one line of a batch file
type batchItem struct {
	input    string
	provider domain.ProviderID
	path     string
	skipped  bool
	err      error
}

func runBatch(cmd *cobra.Command, args []string) error {
	dest, _ := cmd.Flags().GetString("dest")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
	serverURL, _ := cmd.Flags().GetString("server")

	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	inputs, err := readInputs(r)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("batch file has no inputs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var acquire acquireFunc
	if serverURL != "" {
		acquire = remoteAcquirer(newRemoteClient(serverURL), dest, skipExisting)
	} else {
		components, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		defer components.Close()
		acquire = localAcquirer(components.Service, dest, app.AcquireOptions{SkipExisting: skipExisting})
	}

	items := runInputs(ctx, acquire, inputs, stopOnError, func(i int, item batchItem) {
		status := "ok"
		if item.err != nil {
			status = "FAILED"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s: %s\n", i+1, len(inputs), status, item.input)
	})

	failed := printSummary(cmd.OutOrStdout(), items)
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(inputs))
	}
	return nil
}

// acquireFunc acquires one batch input
type acquireFunc func(ctx context.Context, input string) batchItem

// acquirer is the part of the service a batch needs
type acquirer interface {
	Acquire(ctx context.Context, req domain.AcquisitionRequest, opts app.AcquireOptions) (*app.Result, error)
}

func localAcquirer(service acquirer, dest string, opts app.AcquireOptions) acquireFunc {
	return func(ctx context.Context, input string) batchItem {
		item := batchItem{input: input}
		result, err := service.Acquire(ctx, domain.AcquisitionRequest{RawInput: input, DestinationDir: dest}, opts)
		if err != nil {
			item.err = err
			return item
		}
		item.path = result.File.Path
		item.skipped = result.Skipped
		item.provider = result.Acquisition.Provider
		return item
	}
}

func remoteAcquirer(client *remoteClient, dest string, skipExisting bool) acquireFunc {
	return func(ctx context.Context, input string) batchItem {
		item := batchItem{input: input}
		resp, err := client.Acquire(ctx, input, dest, skipExisting)
		if err != nil {
			item.err = err
			return item
		}
		if resp.File != nil {
			item.path = resp.File.Path
		}
		item.skipped = resp.Skipped
		if resp.Acquisition != nil {
			item.provider = resp.Acquisition.Provider
		}
		return item
	}
}

// runInputs acquires inputs strictly in order. Cancellation stops the batch.
func runInputs(ctx context.Context, acquire acquireFunc, inputs []string, stopOnError bool, report func(int, batchItem)) []batchItem {
	items := make([]batchItem, 0, len(inputs))
	for i, input := range inputs {
		if ctx.Err() != nil {
			break
		}

		item := acquire(ctx, input)
		items = append(items, item)
		if report != nil {
			report(i, item)
		}
		if item.err != nil && stopOnError {
			break
		}
	}
	return items
}

// readInputs returns the non-blank, non-comment lines of r
func readInputs(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return inputs, nil
}

// printSummary writes one row per item and returns the number of failures
func printSummary(w io.Writer, items []batchItem) int {
	failed := 0
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tPROVIDER\tINPUT\tRESULT")
	for _, item := range items {
		switch {
		case item.err != nil:
			failed++
			fmt.Fprintf(tw, "failed\t-\t%s\t%s\n", truncate(item.input, 40), truncate(firstLine(item.err.Error()), 80))
		case item.skipped:
			fmt.Fprintf(tw, "skipped\t%s\t%s\t%s\n", item.provider, truncate(item.input, 40), item.path)
		default:
			fmt.Fprintf(tw, "ok\t%s\t%s\t%s\n", item.provider, truncate(item.input, 40), item.path)
		}
	}
	tw.Flush()
	return failed
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
