package cli

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func newWorkersCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "List registered worker classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out []map[string]any
			if err := client().do(cmd.Context(), http.MethodGet, "/api/workers", nil, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}
}

func newAdminCmd(client func() *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations",
	}

	var batchSize int
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset all job and pipeline statuses to idle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]int{"batch_size": batchSize}
			var out map[string]any
			if err := client().do(cmd.Context(), http.MethodPost, "/api/admin/reset", body, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}
	resetCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per batch (0 uses the server default)")

	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show outstanding task info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out map[string]any
			if err := client().do(cmd.Context(), http.MethodGet, "/api/admin/tasks", nil, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}

	cmd.AddCommand(resetCmd, tasksCmd)
	return cmd
}
