package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var host string

	rootCmd := &cobra.Command{
		Use:           "pipeflow",
		Short:         "Pipeline controller CLI",
		Long:          "Command-line interface for the pipeline orchestration controller.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "Controller host URL")

	client := func() *Client {
		if v := os.Getenv("PIPEFLOW_HOST"); v != "" && !rootCmd.PersistentFlags().Changed("host") {
			return NewClient(v)
		}
		return NewClient(host)
	}

	rootCmd.AddCommand(
		newPipelineCmd(client),
		newLogsCmd(client),
		newWorkersCmd(client),
		newAdminCmd(client),
	)
	return rootCmd
}

// printJSON pretty-prints v to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
