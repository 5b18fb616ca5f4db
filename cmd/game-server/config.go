package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cheildo/game-of-three/internal/gateway"
	"github.com/cheildo/game-of-three/internal/pkg/redis"
)

const (
	backendLocal = "local"
	backendRedis = "redis"
)

type config struct {
	HTTPPort        string
	GRPCPort        string
	DiagnosticsPort string

	IdentitySecret string
	CookieTTL      time.Duration

	DispatchBackend     string
	Redis               redis.Config
	RedisChannelPrefix  string
	RedisOwnerLease     time.Duration
	RedisRequestTimeout time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	Websocket gateway.WebsocketConfig

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", "8080")
	v.SetDefault("grpc_server.port", "9090")
	v.SetDefault("diagnostics.port", "6060")
	v.SetDefault("identity.cookie_ttl_minutes", 60)
	v.SetDefault("dispatch.backend", backendLocal)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel_prefix", "gameofthree")
	v.SetDefault("redis.owner_lease_seconds", 10)
	v.SetDefault("redis.request_timeout_seconds", 3)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.game_events_topic", "game-events")
	v.SetDefault("websocket.send_buffer", 16)
	v.SetDefault("websocket.pong_wait_seconds", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// loadConfig reads game-server.yaml from configPaths, then the environment
// (GAMEOFTHREE_HTTP_SERVER_PORT for http_server.port). A missing file is
// not an error.
func loadConfig(v *viper.Viper, configPaths ...string) (config, error) {
	setDefaults(v)

	v.SetConfigName("game-server")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("GAMEOFTHREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("could not read configuration: %w", err)
		}
	}

	cfg := config{
		HTTPPort:        v.GetString("http_server.port"),
		GRPCPort:        v.GetString("grpc_server.port"),
		DiagnosticsPort: v.GetString("diagnostics.port"),

		IdentitySecret: v.GetString("identity.secret_key"),
		CookieTTL:      time.Duration(v.GetInt("identity.cookie_ttl_minutes")) * time.Minute,

		DispatchBackend: strings.ToLower(v.GetString("dispatch.backend")),
		Redis: redis.Config{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RedisChannelPrefix:  v.GetString("redis.channel_prefix"),
		RedisOwnerLease:     time.Duration(v.GetInt("redis.owner_lease_seconds")) * time.Second,
		RedisRequestTimeout: time.Duration(v.GetInt("redis.request_timeout_seconds")) * time.Second,

		KafkaEnabled: v.GetBool("kafka.enabled"),
		KafkaBrokers: v.GetStringSlice("kafka.brokers"),
		KafkaTopic:   v.GetString("kafka.game_events_topic"),

		Websocket: gateway.WebsocketConfig{
			SendBuffer: v.GetInt("websocket.send_buffer"),
			PongWait:   time.Duration(v.GetInt("websocket.pong_wait_seconds")) * time.Second,
		},

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
	}

	switch cfg.DispatchBackend {
	case backendLocal, backendRedis:
	default:
		return config{}, fmt.Errorf("unknown dispatch backend %q", cfg.DispatchBackend)
	}
	return cfg, nil
}
