package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"veriguard/internal/chat"
	"veriguard/internal/export"
)

func newExportCmd() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "export <chat-id>",
		Short: "Write a chat as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, "")
			if err != nil {
				return err
			}
			defer a.Close()

			sess, ok := a.store.Get(args[0])
			if !ok {
				return fmt.Errorf("%s: %w", args[0], chat.ErrNotFound)
			}
			if toStdout {
				fmt.Fprint(cmd.OutOrStdout(), export.BuildSessionMarkdown(sess, time.Now().UTC()))
				return nil
			}
			path, err := a.exporter.Export(sess)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "print the markdown instead of writing a file")
	return cmd
}
