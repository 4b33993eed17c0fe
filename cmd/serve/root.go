package serve

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	cmdUtil "github.com/lucid-kv/lucid/cmd/util"
	"github.com/lucid-kv/lucid/rpc/common"
	"github.com/lucid-kv/lucid/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the lucid server",
		Long:    `Start the lucid server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is LUCID_<flag> (e.g. LUCID_ENCRYPTION_KEY=...)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100", cmdUtil.WrapString("Comma-separated list of shard ids to serve. Every shard is an independent in-memory store"))

	key = "db-shards"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Number of internal shards of each store (0 = number of CPUs)"))

	key = "encryption"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Encrypt values at rest (AES in CBC mode)"))

	key = "encryption-key"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Hex encoded encryption key of 16, 24 or 32 bytes. Prefer setting it with LUCID_ENCRYPTION_KEY"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for reading and writing requests"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/lucid.sock, ...)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address of the Prometheus metrics endpoint (e.g. localhost:9090, empty = disabled)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// parseShards parses a comma-separated list of shard ids
func parseShards(s string) ([]uint64, error) {
	shards := make([]uint64, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		shardID, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %w", part, err)
		}
		shards = append(shards, shardID)
	}
	return shards, nil
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Shards = shards
	serveCmdConfig.DBShards = viper.GetInt("db-shards")
	serveCmdConfig.Encryption = common.EncryptionConfig{
		Enabled: viper.GetBool("encryption"),
		Key:     viper.GetString("encryption-key"),
	}
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if err := serveCmdConfig.Validate(); err != nil {
		return err
	}

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the lucid server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		if _, ok := <-sig; ok {
			server.Logger.Infof("shutting down")
			_ = serv.Close()
		}
	}()

	return serv.Serve()
}
