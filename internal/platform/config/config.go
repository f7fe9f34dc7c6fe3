package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportHttp = "http"
	TransportZmq  = "zmq"
)

type Config struct {
	Host                string
	ServerPort          int
	SelfUrl             string
	ClusterNodes        []string
	DataDirectory       string
	FlushThresholdBytes int64
	FlushRetries        int
	ReplicaTimeout      time.Duration
	ReplicaTransport    string
	ZmqApiEnabled       bool
	ZmqPortOffset       int
	DeploymentMode      string
	LogLevel            string
	JaegerEndpoint      string
	ServiceName         string
}

func LoadConfig() Config {
	godotenv.Load(".env")
	port := intEnv("HTTP_SERVER_PORT", 8080)
	self := stringEnv("SELF_URL", fmt.Sprintf("http://localhost:%d", port))
	return Config{
		Host:                os.Getenv("HTTP_HOST"),
		ServerPort:          port,
		SelfUrl:             self,
		ClusterNodes:        listEnv("CLUSTER_NODES", []string{self}),
		DataDirectory:       stringEnv("DATA_DIRECTORY", "./data"),
		FlushThresholdBytes: int64(intEnv("FLUSH_THRESHOLD_BYTES", 1<<20)),
		FlushRetries:        intEnv("FLUSH_RETRIES", 3),
		ReplicaTimeout:      durationEnv("REPLICA_TIMEOUT", time.Second),
		ReplicaTransport:    stringEnv("REPLICA_TRANSPORT", TransportHttp),
		ZmqApiEnabled:       boolEnv("ZMQ_API_ENABLED", false),
		ZmqPortOffset:       intEnv("ZMQ_PORT_OFFSET", 1000),
		DeploymentMode:      os.Getenv("DEPLOYMENT_MODE"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		JaegerEndpoint:      os.Getenv("JAEGER_ENDPOINT"),
		ServiceName:         stringEnv("SERVICE_NAME", "quorumkv"),
	}
}

func (c Config) Validate() error {
	if c.ServerPort <= 0 {
		return fmt.Errorf("config: invalid port %d", c.ServerPort)
	}
	if c.FlushThresholdBytes <= 0 {
		return fmt.Errorf("config: flush threshold must be positive, got %d", c.FlushThresholdBytes)
	}
	if c.DataDirectory == "" {
		return fmt.Errorf("config: empty data directory")
	}
	if c.ReplicaTransport != TransportHttp && c.ReplicaTransport != TransportZmq {
		return fmt.Errorf("config: unknown replica transport %q", c.ReplicaTransport)
	}
	if c.ReplicaTransport == TransportZmq && !c.ZmqApiEnabled {
		return fmt.Errorf("config: zmq transport requires ZMQ_API_ENABLED")
	}
	self := strings.TrimRight(c.SelfUrl, "/")
	if !slices.ContainsFunc(c.ClusterNodes, func(n string) bool { return strings.TrimRight(n, "/") == self }) {
		return fmt.Errorf("config: self url %q is not in the cluster %v", c.SelfUrl, c.ClusterNodes)
	}
	return nil
}

func (c Config) HttpAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.ServerPort)
}

func (c Config) ZmqApiPort() int {
	return c.ServerPort + c.ZmqPortOffset
}

func stringEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func boolEnv(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func listEnv(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
