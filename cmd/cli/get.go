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

	"github.com/spf13/cobra"

	"github.com/yourusername/lecture-fetch/internal/app"
	"github.com/yourusername/lecture-fetch/internal/domain"
)

var getCmd = &cobra.Command{
	Use:   "get [input]",
	Short: "Acquire one URL or search query as mp3",
	Long: `Acquire one URL or search query as mp3.
With no argument the input is read from a prompt.`,
	Example: `  lecture-fetch get https://example.com/audio/talk42.wav -d /tmp/out
  lecture-fetch get "Intro to Systems lecture 3"
  lecture-fetch get "Intro to Systems album" --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringP("dest", "d", "", "Destination directory (default: output.dir or the platform default)")
	getCmd.Flags().Bool("skip-existing", false, "Reuse a previous result for the same input if its file still exists")
	getCmd.Flags().Bool("no-progress", false, "Disable the download progress bar")
	getCmd.Flags().Bool("dry-run", false, "Only show how the input would be handled")
	getCmd.Flags().String("server", "", "Send the request to a running lecture-fetch-server instead (--dest is then relative to its output directory)")
}

func runGet(cmd *cobra.Command, args []string) error {
	dest, _ := cmd.Flags().GetString("dest")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	serverURL, _ := cmd.Flags().GetString("server")

	var input string
	if len(args) == 1 {
		input = args[0]
	} else {
		var err error
		input, err = promptInput(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(input) == "" {
		return errors.New("no input given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()

	if serverURL != "" {
		client := newRemoteClient(serverURL)
		if dryRun {
			plan, err := client.Classify(ctx, input)
			if err != nil {
				return err
			}
			printPlan(out, input, plan.Classification, plan.Providers)
			return nil
		}
		resp, err := client.Acquire(ctx, input, dest, skipExisting)
		if err != nil {
			return err
		}
		printRemoteResult(out, resp)
		return nil
	}

	components, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer components.Close()

	if dryRun {
		classification, providers := components.Service.Plan(input)
		printPlan(out, input, classification, providers)
		return nil
	}

	if !noProgress {
		components.Direct.SetProgress(newProgressFunc())
	}

	result, err := components.Service.Acquire(ctx, domain.AcquisitionRequest{
		RawInput:       input,
		DestinationDir: dest,
	}, app.AcquireOptions{SkipExisting: skipExisting})
	if err != nil {
		return err
	}

	printResult(out, result)
	return nil
}

// promptInput asks for an input on r
func promptInput(r io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "URL or search query: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printPlan(w io.Writer, input string, c domain.SourceClassification, providers []domain.ProviderID) {
	fmt.Fprintf(w, "Input:     %s\n", input)
	fmt.Fprintf(w, "Kind:      %s\n", c.Kind)
	if c.Hint != domain.HintNone {
		fmt.Fprintf(w, "Hint:      %s\n", c.Hint)
	}
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = string(p)
	}
	fmt.Fprintf(w, "Providers: %s\n", strings.Join(names, " -> "))
}

func printResult(w io.Writer, result *app.Result) {
	if result.Skipped {
		fmt.Fprintf(w, "Already acquired: %s\n", result.File.Path)
		return
	}
	fmt.Fprintf(w, "Saved %s (via %s)\n", result.File.Path, result.Acquisition.Provider)
}
