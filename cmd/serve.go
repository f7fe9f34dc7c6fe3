package cmd

import (
	"QuorumKV/bootstrap"
	"QuorumKV/internal/platform/config"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type serveFlags struct {
	port           int
	dataDir        string
	nodes          []string
	self           string
	flushThreshold int64
	transport      string
	zmq            bool
}

func newServeCmd() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a storage node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.apply(cmd.Flags(), config.LoadConfig())
			return bootstrap.Run(cfg)
		},
	}
	cmd.Flags().IntVarP(&flags.port, "port", "p", 8080, "HTTP port of the node")
	cmd.Flags().StringVar(&flags.dataDir, "data-dir", "./data", "directory holding the sorted tables")
	cmd.Flags().StringSliceVar(&flags.nodes, "nodes", nil, "urls of every node in the cluster")
	cmd.Flags().StringVar(&flags.self, "self", "", "url of this node as listed in --nodes")
	cmd.Flags().Int64Var(&flags.flushThreshold, "flush-threshold", 1<<20, "in-memory table size that triggers a flush")
	cmd.Flags().StringVar(&flags.transport, "transport", config.TransportHttp, "inter-node transport (http or zmq)")
	cmd.Flags().BoolVar(&flags.zmq, "zmq", false, "serve the ZeroMQ API")
	return cmd
}

// apply overrides the environment config with the flags set explicitly.
func (f serveFlags) apply(fs *pflag.FlagSet, cfg config.Config) config.Config {
	if fs.Changed("port") {
		cfg.ServerPort = f.port
		if !fs.Changed("self") && len(cfg.ClusterNodes) == 1 && cfg.ClusterNodes[0] == cfg.SelfUrl {
			cfg.SelfUrl = defaultSelf(f.port)
			cfg.ClusterNodes = []string{cfg.SelfUrl}
		}
	}
	if fs.Changed("data-dir") {
		cfg.DataDirectory = f.dataDir
	}
	if fs.Changed("nodes") {
		cfg.ClusterNodes = f.nodes
	}
	if fs.Changed("self") {
		cfg.SelfUrl = f.self
	}
	if fs.Changed("flush-threshold") {
		cfg.FlushThresholdBytes = f.flushThreshold
	}
	if fs.Changed("transport") {
		cfg.ReplicaTransport = f.transport
	}
	if fs.Changed("zmq") {
		cfg.ZmqApiEnabled = f.zmq
	}
	return cfg
}

func defaultSelf(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}
