package cmd

import (
	"QuorumKV/internal/domain"
	"QuorumKV/internal/platform/client"
	"QuorumKV/internal/platform/config"
	"QuorumKV/internal/platform/loadtest"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		opts       loadtest.Options
		transport  string
		replicas   string
		portOffset int
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a random read/write load against a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			quorum, err := parseBenchQuorum(replicas)
			if err != nil {
				return err
			}
			opts.Quorum = quorum
			var sender loadtest.Sender
			switch transport {
			case config.TransportHttp:
				sender = client.NewHttpReplicaClient(opts.Timeout)
			case config.TransportZmq:
				sender = client.NewZmqReplicaClient(portOffset)
			default:
				return fmt.Errorf("unknown transport %q", transport)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d workers against %s over %s for %v\n",
				opts.Workers, opts.Node, transport, opts.Duration)
			loadtest.NewBenchmark(sender, opts).Run(cmd.Context()).Report(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Node, "url", "http://localhost:8080", "url of the node")
	cmd.Flags().IntVar(&opts.Workers, "workers", 10, "concurrent workers")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 30*time.Second, "length of the run")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "per request timeout")
	cmd.Flags().IntVar(&opts.Keys, "keys", 1000, "distinct keys per worker")
	cmd.Flags().StringVar(&replicas, "replicas", "1/1", "quorum of every request as <ack>/<from>")
	cmd.Flags().StringVar(&transport, "transport", config.TransportHttp, "http or zmq")
	cmd.Flags().IntVar(&portOffset, "zmq-port-offset", 1000, "offset of the ZeroMQ API port")
	return cmd
}

// parseBenchQuorum checks only the shape of the quorum; the node
// validates it against its cluster.
func parseBenchQuorum(s string) (domain.Quorum, error) {
	var q domain.Quorum
	if _, err := fmt.Sscanf(s, "%d/%d", &q.Ack, &q.From); err != nil {
		return domain.Quorum{}, fmt.Errorf("replicas %q must be <ack>/<from>", s)
	}
	return q, q.Validate(q.From)
}
