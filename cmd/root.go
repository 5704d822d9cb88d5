package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"veriguard/internal/router"
	"veriguard/internal/ui"
	"veriguard/internal/view"
)

var (
	cfgFile       string
	endpointFlag  string
	timeoutFlag   time.Duration
	profileFlag   string
	dbPathFlag    string
	exportDirFlag string
	debugFlag     bool
	ephemeralFlag bool
)

// Execute is the entry point called from main.go.
func Execute(version, commit, date string) {
	if err := newRootCmd(version, commit, date).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "veriguard [location]",
		Short: "Fact-check health claims from the terminal",
		Long: "veriguard sends a question, an image URL, or a file to the VeriGuard analysis\n" +
			"service and keeps a navigable history of the conversations.\n\n" +
			"With no subcommand it opens the interactive client, optionally at a\n" +
			"location such as /chat/<id> or a bare chat id.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initial := ""
			if len(args) == 1 {
				initial = locationArg(args[0])
			}
			return runTUI(cmd, initial)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/veriguard/config.yaml)")
	pf.StringVar(&endpointFlag, "endpoint", "", "analysis endpoint URL")
	pf.DurationVar(&timeoutFlag, "timeout", 0, "request timeout (default 25s)")
	pf.StringVarP(&profileFlag, "profile", "p", "", "history profile name")
	pf.StringVar(&dbPathFlag, "db-path", "", "path to the SQLite history file")
	pf.StringVar(&exportDirFlag, "export-dir", "", "directory for markdown exports")
	pf.BoolVar(&debugFlag, "debug", false, "write debug logs")
	pf.BoolVar(&ephemeralFlag, "ephemeral", false, "keep history in memory only")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))
	return rootCmd
}

// locationArg accepts either a location path or a bare chat id.
func locationArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "/") {
		return arg
	}
	return router.SessionPath(arg)
}

func runTUI(cmd *cobra.Command, initial string) error {
	a, err := openApp(cmd, initial)
	if err != nil {
		return err
	}
	defer a.Close()

	m := ui.NewModel(ui.Deps{
		Config:     a.cfg,
		Store:      a.store,
		Router:     a.router,
		Controller: a.ctrl,
		Exporter:   a.exporter,
		Formatter:  view.NewGlamour(a.cfg.GlamourStyle),
		Logger:     a.component("ui"),
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
