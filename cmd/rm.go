package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"veriguard/internal/chat"
)

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <chat-id>...",
		Short: "Delete chats from the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, "")
			if err != nil {
				return err
			}
			defer a.Close()

			for _, id := range args {
				if _, ok := a.store.Get(id); !ok {
					return fmt.Errorf("%s: %w", id, chat.ErrNotFound)
				}
				a.ctrl.DeleteSession(id)
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", id)
			}
			return nil
		},
	}
}
