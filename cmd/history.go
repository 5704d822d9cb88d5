package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"veriguard/internal/chat"
	"veriguard/internal/view"
)

func newHistoryCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List chats grouped by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, "")
			if err != nil {
				return err
			}
			defer a.Close()

			summaries := a.store.List()
			if query != "" {
				summaries = a.store.Search(query)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No chats found.")
				return nil
			}

			out := cmd.OutOrStdout()
			active, _ := a.store.Active()
			for i, g := range chat.GroupByDay(summaries, time.Now()) {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, g.Label)
				for _, s := range g.Sessions {
					marker := " "
					if s.ID == active {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %-36s  %-40s  %2d msgs  %s\n",
						marker, s.ID, view.SidebarLabel(s.Title, 40), s.MessageCount, s.UpdatedAt.Local().Format("15:04"))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "search", "", "only list chats containing every term")
	return cmd
}
