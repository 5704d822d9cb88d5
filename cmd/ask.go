package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"veriguard/internal/analysis"
	"veriguard/internal/lifecycle"
	"veriguard/internal/view"
)

func newAskCmd() *cobra.Command {
	var (
		filePath  string
		sessionID string
		raw       bool
		width     int
	)

	cmd := &cobra.Command{
		Use:   "ask [text or image URL]",
		Short: "Submit one query and print the reply",
		Example: `  veriguard ask "Does turmeric cure cancer?"
  veriguard ask https://example.org/label.jpg
  veriguard ask --file ./claim.png --session 3f2a9c`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" && filePath == "" {
				return fmt.Errorf("nothing to ask: pass text, an image URL, or --file")
			}

			var file *analysis.File
			if filePath != "" {
				f, err := analysis.FileFromPath(filePath)
				if err != nil {
					return err
				}
				file = f
			}

			a, err := openApp(cmd, "")
			if err != nil {
				return err
			}
			defer a.Close()

			if sessionID != "" {
				if err := a.ctrl.Open(sessionID); err != nil {
					return fmt.Errorf("session %s: %w", sessionID, err)
				}
			} else {
				a.ctrl.StartNewChat()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := a.ctrl.Submit(ctx, lifecycle.Input{Text: text, File: file})
			if err != nil {
				return err
			}
			if res.State != lifecycle.Fulfilled {
				fmt.Fprintln(cmd.ErrOrStderr(), lifecycle.ErrorText(res.Err, a.ctrl.Timeout()))
				return fmt.Errorf("request %s", res.State)
			}

			sess, ok := a.store.Get(res.SessionID)
			if !ok {
				return errors.New("reply was not stored")
			}
			reply, _ := sess.LastReply()
			out := reply
			if !raw {
				var f view.Formatter = view.NewGlamour(a.cfg.GlamourStyle)
				if formatted, err := f.Format(reply, width); err == nil {
					out = formatted
				} else {
					a.log.Warn("format reply failed, printing raw text", "err", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			fmt.Fprintf(cmd.ErrOrStderr(), "\nchat: %s (%s)\n", sess.Title, a.router.Location())
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "upload a local file instead of text")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "continue an existing chat")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the reply without formatting")
	cmd.Flags().IntVar(&width, "width", 80, "wrap width for formatted output")
	return cmd
}
