package cmd

import (
	"QuorumKV/internal/platform/client"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCompactCmd() *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Ask a running node to compact its tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.NewAdminClient(url, timeout).Compact(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "compacted", url)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080", "url of the node")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for the compaction")
	return cmd
}
