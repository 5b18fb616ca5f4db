package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cheildo/game-of-three/internal/client"
	"github.com/cheildo/game-of-three/internal/pkg/logutil"
	"github.com/cheildo/game-of-three/internal/queryrpc"
)

const (
	transportHTTP = "http"
	transportGRPC = "grpc"
)

var rootCmd = &cobra.Command{
	Use:   "game-client",
	Short: "Game of Three player",
	Long: `game-client connects to a Game of Three server and plays one or more games,
either on its own (automatic) or with moves typed on standard input (manual).`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./configs/development/game-client.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket_url", "ws://localhost:8080/websocket")
	v.SetDefault("server.http_url", "http://localhost:8080")
	v.SetDefault("server.grpc_addr", "localhost:9090")
	v.SetDefault("server.query_transport", transportHTTP)
	v.SetDefault("reconnect.max_retries", 5)
	v.SetDefault("reconnect.initial_interval_ms", 500)
	v.SetDefault("reconnect.max_interval_ms", 10000)
	v.SetDefault("log.level", "warn")
}

func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("game-client")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs/development")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("GAMEOFTHREE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "could not read configuration: %v\n", err)
		}
	}

	slog.SetDefault(logutil.New(os.Stderr, viper.GetString("log.level"), "text"))
}

func clientConfig(v *viper.Viper) client.Config {
	return client.Config{
		WebsocketURL:    v.GetString("server.websocket_url"),
		MaxRetries:      v.GetUint("reconnect.max_retries"),
		InitialInterval: time.Duration(v.GetInt("reconnect.initial_interval_ms")) * time.Millisecond,
		MaxInterval:     time.Duration(v.GetInt("reconnect.max_interval_ms")) * time.Millisecond,
	}
}

// newQuerier returns the first player query for the configured transport
// and a function releasing it.
func newQuerier(v *viper.Viper) (client.FirstPlayerQuerier, func(), error) {
	switch transport := strings.ToLower(v.GetString("server.query_transport")); transport {
	case transportHTTP:
		return client.NewHTTPQuery(v.GetString("server.http_url")), func() {}, nil
	case transportGRPC:
		conn, err := queryrpc.Dial(v.GetString("server.grpc_addr"))
		if err != nil {
			return nil, nil, err
		}
		return queryrpc.NewClient(conn), func() { conn.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown query transport %q", transport)
	}
}
