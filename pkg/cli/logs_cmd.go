package cli

import (
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newLogsCmd(client func() *Client) *cobra.Command {
	var (
		jobID       string
		workerClass string
		level       string
		query       string
		cursor      string
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "logs <pipeline-id>",
		Short: "Query execution logs for a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if jobID != "" {
				params.Set("job_id", jobID)
			}
			if workerClass != "" {
				params.Set("worker_class", workerClass)
			}
			if level != "" {
				params.Set("log_level", level)
			}
			if query != "" {
				params.Set("q", query)
			}
			if cursor != "" {
				params.Set("cursor", cursor)
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}

			var out map[string]any
			path := "/api/pipelines/" + args[0] + "/logs"
			if enc := params.Encode(); enc != "" {
				path += "?" + enc
			}
			if err := client().do(cmd.Context(), http.MethodGet, path, nil, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "Filter by job id")
	cmd.Flags().StringVar(&workerClass, "worker", "", "Filter by worker class")
	cmd.Flags().StringVar(&level, "level", "", "Filter by log level (DEBUG, INFO, WARNING, ERROR)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by message substring")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from a previous page")
	cmd.Flags().IntVar(&limit, "limit", 20, "Entries per page")
	return cmd
}
