package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quorumkv",
	Short: "A replicated key-value store",
	Long: `A replicated key-value store backed by a log-structured merge engine.
Every key lives on a replica set of nodes and each request chooses its
own read and write quorum.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "quorumkv:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCompactCmd())
	rootCmd.AddCommand(newBenchCmd())
}
