package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/janhq/multichat/pkg/multichat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive multi-model prompt",
	Long: `Read queries line by line. Each line starts a new session for the
selected models; a line entered while a session is still streaming replaces
it. Type /clear to stop the current session or /quit to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringSliceP("model", "m", nil, "Model id to ask (repeatable; default all)")
	chatCmd.Flags().Int("width", 100, "Panel width")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ids, _ := cmd.Flags().GetStringSlice("model")
	width, _ := cmd.Flags().GetInt("width")

	ctx := cmd.Context()
	client := newClient(cmd)
	models, err := selectModels(ctx, client, ids)
	if err != nil {
		return err
	}

	out := &lockedWriter{w: cmd.OutOrStdout()}
	ctrl := multichat.NewController(client, nil)
	var renders sync.WaitGroup

	fmt.Fprintf(out, "%s %d models. /clear stops the current answer, /quit exits.\n",
		titleStyle.Render("multichat"), len(models))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		out.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			ctrl.Clear()
			renders.Wait()
			return nil
		case "/clear":
			ctrl.Clear()
			continue
		}

		session, err := ctrl.Submit(ctx, line, models)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			continue
		}
		renders.Add(1)
		go func(s *multichat.Session) {
			defer renders.Done()
			waitErr := s.Wait()
			// A superseded or cleared session is not shown.
			if ctrl.Current() != s {
				return
			}
			out.block(func(w io.Writer) {
				fmt.Fprint(w, "\n"+renderSnapshot(s.Snapshot(), width))
				if waitErr != nil {
					fmt.Fprintln(w, errorStyle.Render(waitErr.Error()))
				}
			})
		}(session)
	}

	if current := ctrl.Current(); current != nil {
		_ = current.Wait()
	}
	renders.Wait()
	return scanner.Err()
}

// lockedWriter serialises the prompt and session output.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (l *lockedWriter) prompt() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.w, "> ")
}

func (l *lockedWriter) block(fn func(w io.Writer)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.w)
	fmt.Fprint(l.w, "> ")
}
