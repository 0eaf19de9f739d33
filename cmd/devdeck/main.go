package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires all subcommands.
func buildRoot() *cobra.Command {
	serveFlags := &ServeFlags{}
	statusFlags := &StatusFlags{}
	logsFlags := &LogsFlags{}
	startFlags := &LifecycleFlags{}
	stopFlags := &LifecycleFlags{}
	restartFlags := &LifecycleFlags{}
	classifyFlags := &ClassifyFlags{}

	cmds := command{}

	root := createRootCommand()
	root.AddCommand(
		createServeCommand(serveFlags),
		createStatusCommand(cmds, statusFlags),
		createLogsCommand(cmds, logsFlags),
		createLifecycleCommand(cmds, "start", "Request a service start", startFlags),
		createLifecycleCommand(cmds, "stop", "Request a service stop", stopFlags),
		createLifecycleCommand(cmds, "restart", "Request a service restart", restartFlags),
		createClassifyCommand(cmds, classifyFlags),
		createVersionCommand(),
	)
	return root
}

func createRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devdeck",
		Short: "Development dashboard daemon",
		Long: `Devdeck aggregates service status, health reports, and log streams
from a local orchestrator and serves them to browser dashboards.

Examples:
  devdeck serve config.toml            # Start the daemon
  devdeck status                       # Service table from a running daemon
  devdeck logs --service=api --level=error
  devdeck restart --name=api`,
	}
}

func createStatusCommand(cmds command, flags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show services and aggregate counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmds.Status(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Service, "service", "", "limit to one service")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)
	return cmd
}

func createLogsCommand(cmds command, flags *LogsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print buffered log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmds.Logs(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Service, "service", "", "filter by service")
	cmd.Flags().StringVar(&flags.Level, "level", "", "filter by level (info|warning|error)")
	cmd.Flags().IntVar(&flags.Limit, "limit", 0, "max lines (0 = all buffered)")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)
	return cmd
}

func createLifecycleCommand(cmds command, action, short string, flags *LifecycleFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmds.Lifecycle(action, *flags)
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "", "service name (required)")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

func createClassifyCommand(cmds command, flags *ClassifyFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Manage log classification overrides",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List classification overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmds.ClassifyList(*flags)
		},
	}
	addAPIFlags(list, &flags.APIUrl, &flags.APITimeout)

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a classification override",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmds.ClassifyAdd(*flags)
		},
	}
	add.Flags().StringVar(&flags.Text, "text", "", "substring to match (required)")
	add.Flags().StringVar(&flags.Level, "level", "", "level to assign: info, warning, or error (required)")
	addAPIFlags(add, &flags.APIUrl, &flags.APITimeout)
	for _, f := range []string{"text", "level"} {
		if err := add.MarkFlagRequired(f); err != nil {
			panic(err)
		}
	}

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove a classification override",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmds.ClassifyRemove(*flags)
		},
	}
	remove.Flags().StringVar(&flags.Text, "text", "", "override text to remove (required)")
	addAPIFlags(remove, &flags.APIUrl, &flags.APITimeout)
	if err := remove.MarkFlagRequired("text"); err != nil {
		panic(err)
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the devdeck version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("devdeck", version)
		},
	}
}

func addAPIFlags(cmd *cobra.Command, url *string, timeout *time.Duration) {
	cmd.Flags().StringVar(url, "api-url", "", "daemon URL (default http://localhost:4100)")
	cmd.Flags().DurationVar(timeout, "api-timeout", 10*time.Second, "request timeout")
}
