package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newPipelineCmd(client func() *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Manage pipelines",
	}
	cmd.AddCommand(
		newPipelineListCmd(client),
		newPipelineGetCmd(client),
		newPipelineStartCmd(client),
		newPipelineStopCmd(client),
		newPipelineScheduleCmd(client),
		newPipelineExportCmd(client),
		newPipelineImportCmd(client),
		newPipelineDeleteCmd(client),
	)
	return cmd
}

func newPipelineListCmd(client func() *Client) *cobra.Command {
	var (
		query        string
		page         int
		itemsPerPage int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := url.Values{}
			if query != "" {
				params.Set("q", query)
			}
			params.Set("page", fmt.Sprint(page))
			params.Set("items_per_page", fmt.Sprint(itemsPerPage))

			var out map[string]any
			if err := client().do(cmd.Context(), http.MethodGet, "/api/pipelines?"+params.Encode(), nil, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by name substring")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&itemsPerPage, "items-per-page", 10, "Items per page")
	return cmd
}

func newPipelineGetCmd(client func() *Client) *cobra.Command {
	var withJobs bool
	cmd := &cobra.Command{
		Use:   "get <pipeline-id>",
		Short: "Show a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pipeline map[string]any
			if err := client().do(cmd.Context(), http.MethodGet, "/api/pipelines/"+args[0], nil, &pipeline); err != nil {
				return err
			}
			if withJobs {
				var jobs []map[string]any
				if err := client().do(cmd.Context(), http.MethodGet, "/api/pipelines/"+args[0]+"/jobs", nil, &jobs); err != nil {
					return err
				}
				pipeline["jobs"] = jobs
			}
			return printJSON(os.Stdout, pipeline)
		},
	}
	cmd.Flags().BoolVar(&withJobs, "jobs", false, "Include the pipeline's jobs")
	return cmd
}

func newPipelineStartCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "start <pipeline-id>",
		Short: "Start a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := client().do(cmd.Context(), http.MethodPost, "/api/pipelines/"+args[0]+"/start", nil, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}
}

func newPipelineStopCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <pipeline-id>",
		Short: "Stop a running pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := client().do(cmd.Context(), http.MethodPost, "/api/pipelines/"+args[0]+"/stop", nil, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}
}

func newPipelineScheduleCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <pipeline-id> <on|off>",
		Short: "Toggle scheduled execution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch strings.ToLower(args[1]) {
			case "on":
				enabled = true
			case "off":
				enabled = false
			default:
				return fmt.Errorf("expected \"on\" or \"off\", got %q", args[1])
			}

			var out map[string]any
			body := map[string]bool{"run_on_schedule": enabled}
			if err := client().do(cmd.Context(), http.MethodPatch, "/api/pipelines/"+args[0]+"/run_on_schedule", body, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}
}

func newPipelineExportCmd(client func() *Client) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <pipeline-id>",
		Short: "Export a pipeline document to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/pipelines/" + args[0] + "/export"
			if format == "yaml" {
				path += "?format=yaml"
			}
			raw, err := client().doRaw(cmd.Context(), path)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(raw)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Document format (json, yaml)")
	return cmd
}

func newPipelineImportCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a pipeline document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var doc map[string]any
			if err := decodeDocument(args[0], raw, &doc); err != nil {
				return err
			}

			var out map[string]any
			if err := client().do(cmd.Context(), http.MethodPost, "/api/pipelines/import", doc, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}
}

func newPipelineDeleteCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pipeline-id>",
		Short: "Delete a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().do(cmd.Context(), http.MethodDelete, "/api/pipelines/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
}
