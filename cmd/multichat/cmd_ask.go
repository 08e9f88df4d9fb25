package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janhq/multichat/pkg/multichat"
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Send one query to several models",
	Long: `Send one query to the selected models (all by default) and print every
answer once the session completes. Progress is shown on stderr while the
models stream. Ctrl-C stops the session and prints what arrived so far.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceP("model", "m", nil, "Model id to ask (repeatable; default all)")
	askCmd.Flags().Int("width", 100, "Panel width")
	askCmd.Flags().Bool("quiet", false, "Do not print progress")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ids, _ := cmd.Flags().GetStringSlice("model")
	width, _ := cmd.Flags().GetInt("width")
	quiet, _ := cmd.Flags().GetBool("quiet")

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return multichat.ErrEmptyQuery
	}

	ctx := cmd.Context()
	client := newClient(cmd)
	models, err := selectModels(ctx, client, ids)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	var onUpdate func(multichat.Snapshot)
	if !quiet {
		onUpdate = progressPrinter(stderr)
	}

	session := client.Stream(ctx, query, models, onUpdate)
	err = session.Wait()
	if !quiet {
		fmt.Fprintln(stderr)
	}

	fmt.Fprint(cmd.OutOrStdout(), renderSnapshot(session.Snapshot(), width))
	if ctx.Err() != nil {
		fmt.Fprintln(stderr, mutedStyle.Render("cancelled"))
		return nil
	}
	return err
}

// progressPrinter rewrites a single status line. It runs under the session
// lock, so it only formats and writes.
func progressPrinter(w io.Writer) func(multichat.Snapshot) {
	return func(snap multichat.Snapshot) {
		fmt.Fprintf(w, "\r\033[K%s", mutedStyle.Render(progressLine(snap)))
	}
}
