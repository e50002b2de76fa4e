// Package cli drives the interactive flow preview used by `rehearse run`.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rehearse-dev/rehearse"
	"github.com/rehearse-dev/rehearse/internal/logging"
	"github.com/rehearse-dev/rehearse/internal/presentation/tui"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/flowfile"
)

const previewTrainer = "preview"

// PreviewOptions configures the interactive preview loop.
type PreviewOptions struct {
	FlowPath string
	Debug    bool
	Plain    bool
	NoBanner bool
}

// RunPreview loads a flow file and rehearses it on the terminal with an
// in-memory engine.
func RunPreview(parent context.Context, opts PreviewOptions) error {
	sc := NewSignalContext(parent)
	defer sc.Cancel()

	doc, err := flowfile.Load(opts.FlowPath)
	if err != nil {
		return err
	}

	svc := rehearse.New(rehearse.WithLogger(createLogger(opts.Debug)))

	res := svc.Validate(doc.Nodes, doc.Edges)
	if !res.IsValid {
		for _, e := range res.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		return fmt.Errorf("flow %q failed validation (%d errors)", doc.Name, len(res.Errors))
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if _, err := svc.CreateDraft(sc, previewTrainer, doc.Name, doc.Nodes, doc.Edges, doc.Settings); err != nil {
		return err
	}

	if !opts.NoBanner {
		tui.PrintBanner()
	}

	render := renderFunc(opts.Plain)

	sess, err := svc.StartSession(sc, previewTrainer, "local", nil)
	if err != nil {
		return err
	}
	printMessages(render, sess.Conversation)

	scanner := bufio.NewScanner(NewInterruptibleReader(os.Stdin, sc.Done()))
	for sess.Status == domain.SessionActive {
		fmt.Print("> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !isInterrupted(err) {
				return err
			}
			fmt.Println()
			printSystemMessage("Preview interrupted.")
			return nil
		}

		turn, err := svc.SendMessage(sc, sess.ID, scanner.Text())
		if err != nil {
			if isInterrupted(err) {
				printSystemMessage("Preview interrupted.")
				return nil
			}
			return err
		}
		printMessages(render, []domain.Message{turn.AIMessage})
		sess.Status = turn.Status
	}

	final, err := svc.GetSession(context.Background(), sess.ID)
	if err == nil {
		printSystemMessage("Completed: %d nodes visited, score %d%%, progress %.0f%%.",
			len(final.Progress.CompletedNodes), final.Progress.Score, final.Progress.CompletionPercentage)
	}
	return nil
}

func renderFunc(plain bool) func(string) (string, error) {
	if plain {
		return func(s string) (string, error) { return s + "\n", nil }
	}
	return tui.NewRenderer()
}

func printMessages(render func(string) (string, error), msgs []domain.Message) {
	for _, m := range msgs {
		out, err := render(m.Content)
		if err != nil {
			out = m.Content + "\n"
		}
		fmt.Print(out)
		if m.MediaURL != "" {
			printSystemMessage("media: %s", m.MediaURL)
		}
	}
}

// createLogger configures the preview logger. In debug mode it writes to
// Stderr to keep the conversation on Stdout readable.
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}
